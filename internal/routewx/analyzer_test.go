package routewx

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utkarshhzz/AviFlux/internal/airports"
	"github.com/utkarshhzz/AviFlux/internal/config"
	"github.com/utkarshhzz/AviFlux/internal/wx"
	"github.com/utkarshhzz/AviFlux/pkg/logger"
)

type mapProvider struct {
	mu        sync.Mutex
	snapshots map[string]wx.WeatherSnapshot
	calls     int
}

func (m *mapProvider) Snapshot(ctx context.Context, icao string) (wx.WeatherSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.snapshots[icao], nil
}

func (m *mapProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func calm(icao string) wx.WeatherSnapshot {
	return wx.WeatherSnapshot{
		Airport:        icao,
		TemperatureC:   15,
		DewpointC:      8,
		WindSpeedKt:    8,
		VisibilitySM:   10,
		FlightCategory: wx.CategoryVFR,
	}
}

// Three airports spaced along the equator so a three-sample route resolves
// 0% to DEP1, 50% to MID1, 100% to ARR1
func routeStore() *airports.Store {
	return airports.NewStore([]airports.Airport{
		{ICAO: "DEP1", Latitude: 0, Longitude: 0},
		{ICAO: "MID1", Latitude: 0, Longitude: 5},
		{ICAO: "ARR1", Latitude: 0, Longitude: 10},
	}, logger.NewNop())
}

func testConfig() config.RouteConfig {
	return config.RouteConfig{
		SamplePoints:         3,
		WindShearDeltaKt:     15,
		MaxAirportDistanceKm: 10000,
		Workers:              2,
		FetchesPerSecond:     1000,
		PointsPerLeg:         10,
	}
}

func newAnalyzer(provider SnapshotProvider, cfg config.RouteConfig) *Analyzer {
	return NewAnalyzer(provider, routeStore(), cfg, logger.NewNop())
}

func TestAnalyzeFavorable(t *testing.T) {
	provider := &mapProvider{snapshots: map[string]wx.WeatherSnapshot{
		"DEP1": calm("DEP1"), "MID1": calm("MID1"), "ARR1": calm("ARR1"),
	}}
	analyzer := newAnalyzer(provider, testConfig())

	analysis, err := analyzer.Analyze(context.Background(), 0, 0, 0, 10)
	require.NoError(t, err)

	assert.Empty(t, analysis.Hazards)
	assert.Equal(t, "FAVORABLE", analysis.OverallConditions)
	assert.Equal(t, 35000, analysis.RecommendedAltitude)
	require.Len(t, analysis.Points, 3)
	assert.Equal(t, "DEP1", analysis.Points[0].NearestAirport)
	assert.Equal(t, "MID1", analysis.Points[1].NearestAirport)
	assert.Equal(t, "ARR1", analysis.Points[2].NearestAirport)
	assert.Equal(t, 3, provider.callCount())
}

func TestAnalyzeLowVisibilityCaution(t *testing.T) {
	mid := calm("MID1")
	mid.VisibilitySM = 2
	provider := &mapProvider{snapshots: map[string]wx.WeatherSnapshot{
		"DEP1": calm("DEP1"), "MID1": mid, "ARR1": calm("ARR1"),
	}}

	analysis, err := newAnalyzer(provider, testConfig()).Analyze(context.Background(), 0, 0, 0, 10)
	require.NoError(t, err)

	require.Len(t, analysis.Hazards, 1)
	assert.Equal(t, HazardLowVisibility, analysis.Hazards[0].Kind)
	assert.Contains(t, analysis.Hazards[0].Description, "low visibility at 50% route")
	assert.Equal(t, "CAUTION", analysis.OverallConditions)
}

func TestAnalyzeWindAndShearHazardous(t *testing.T) {
	mid := calm("MID1")
	mid.WindSpeedKt = 50
	provider := &mapProvider{snapshots: map[string]wx.WeatherSnapshot{
		"DEP1": calm("DEP1"), "MID1": mid, "ARR1": calm("ARR1"),
	}}

	analysis, err := newAnalyzer(provider, testConfig()).Analyze(context.Background(), 0, 0, 0, 10)
	require.NoError(t, err)

	// High wind at the midpoint plus a shear flag on each adjacent transition
	kinds := map[string]int{}
	for _, h := range analysis.Hazards {
		kinds[h.Kind]++
	}
	assert.Equal(t, 1, kinds[HazardHighWind])
	assert.Equal(t, 2, kinds[HazardWindShear])
	assert.Equal(t, "HAZARDOUS", analysis.OverallConditions)
	assert.Equal(t, 32000, analysis.RecommendedAltitude)
}

func TestAnalyzeIcingOutranksShear(t *testing.T) {
	mid := calm("MID1")
	mid.WindSpeedKt = 50
	mid.TemperatureC = -5
	mid.DewpointC = -7
	provider := &mapProvider{snapshots: map[string]wx.WeatherSnapshot{
		"DEP1": calm("DEP1"), "MID1": mid, "ARR1": calm("ARR1"),
	}}

	analysis, err := newAnalyzer(provider, testConfig()).Analyze(context.Background(), 0, 0, 0, 10)
	require.NoError(t, err)

	kinds := map[string]int{}
	for _, h := range analysis.Hazards {
		kinds[h.Kind]++
	}
	assert.Equal(t, 1, kinds[HazardIcing])
	assert.Equal(t, 41000, analysis.RecommendedAltitude)
}

func TestAnalyzeUnservedPointsSkipped(t *testing.T) {
	provider := &mapProvider{snapshots: map[string]wx.WeatherSnapshot{}}
	cfg := testConfig()
	cfg.MaxAirportDistanceKm = 1 // Nothing is within a kilometer

	analysis, err := newAnalyzer(provider, cfg).Analyze(context.Background(), 0, 0, 0, 10)
	require.NoError(t, err)

	for _, p := range analysis.Points {
		assert.False(t, p.Served)
	}
	assert.Zero(t, provider.callCount())
	assert.Empty(t, analysis.Hazards)
	assert.Equal(t, "FAVORABLE", analysis.OverallConditions)
}

func TestAnalyzeReturnsOnCanceledContext(t *testing.T) {
	provider := &mapProvider{snapshots: map[string]wx.WeatherSnapshot{
		"DEP1": calm("DEP1"), "MID1": calm("MID1"), "ARR1": calm("ARR1"),
	}}
	cfg := testConfig()
	cfg.Workers = 1
	analyzer := newAnalyzer(provider, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		_, err := analyzer.Analyze(ctx, 0, 0, 0, 10)
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("Analyze did not return after context cancellation")
	}
}

func TestAnalyzeShearThresholdConfigurable(t *testing.T) {
	mid := calm("MID1")
	mid.WindSpeedKt = 20 // Delta of 12 kt against the neighbors
	provider := &mapProvider{snapshots: map[string]wx.WeatherSnapshot{
		"DEP1": calm("DEP1"), "MID1": mid, "ARR1": calm("ARR1"),
	}}

	analysis, err := newAnalyzer(provider, testConfig()).Analyze(context.Background(), 0, 0, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, analysis.Hazards)

	cfg := testConfig()
	cfg.WindShearDeltaKt = 10
	analysis, err = newAnalyzer(provider, cfg).Analyze(context.Background(), 0, 0, 0, 10)
	require.NoError(t, err)
	require.Len(t, analysis.Hazards, 2)
	assert.Equal(t, HazardWindShear, analysis.Hazards[0].Kind)
}
