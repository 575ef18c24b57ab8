package routewx

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/time/rate"

	"github.com/utkarshhzz/AviFlux/internal/airports"
	"github.com/utkarshhzz/AviFlux/internal/config"
	"github.com/utkarshhzz/AviFlux/internal/geo"
	"github.com/utkarshhzz/AviFlux/internal/metrics"
	"github.com/utkarshhzz/AviFlux/internal/wx"
	"github.com/utkarshhzz/AviFlux/pkg/logger"
)

// Hazard kinds flagged along a route
const (
	HazardLowVisibility = "low_visibility"
	HazardHighWind      = "high_wind"
	HazardIcing         = "icing"
	HazardWindShear     = "wind_shear"
)

// Hazard is one detected route-level condition
type Hazard struct {
	Kind           string `json:"kind"`
	Description    string `json:"description"`
	RoutePercent   int    `json:"route_percent"`
	NearestAirport string `json:"nearest_airport"`
}

// PointConditions is the resolved weather at one sampled route position
type PointConditions struct {
	Latitude       float64             `json:"latitude"`
	Longitude      float64             `json:"longitude"`
	RoutePercent   int                 `json:"route_percent"`
	NearestAirport string              `json:"nearest_airport,omitempty"`
	DistanceKm     float64             `json:"nearest_airport_distance_km,omitempty"`
	Served         bool                `json:"served"`
	Snapshot       *wx.WeatherSnapshot `json:"snapshot,omitempty"`
}

// Analysis is the route-level weather result
type Analysis struct {
	Points              []PointConditions `json:"points"`
	Hazards             []Hazard          `json:"hazards"`
	OverallConditions   string            `json:"overall_conditions"`
	RecommendedAltitude int               `json:"recommended_altitude_ft"`
}

// SnapshotProvider supplies merged per-airport weather
type SnapshotProvider interface {
	Snapshot(ctx context.Context, icao string) (wx.WeatherSnapshot, error)
}

// Analyzer walks a sampled route path and synthesizes route-level hazards.
// Weather fetches fan out over a bounded worker pool with a shared rate
// limit so upstream services are not hammered.
type Analyzer struct {
	provider SnapshotProvider
	airports *airports.Store
	config   config.RouteConfig
	limiter  *rate.Limiter
	logger   *logger.Logger
}

// NewAnalyzer creates a route weather analyzer
func NewAnalyzer(provider SnapshotProvider, store *airports.Store, cfg config.RouteConfig, log *logger.Logger) *Analyzer {
	return &Analyzer{
		provider: provider,
		airports: store,
		config:   cfg,
		limiter:  rate.NewLimiter(rate.Limit(cfg.FetchesPerSecond), 1),
		logger:   log.Named("routewx"),
	}
}

// Analyze samples evenly spaced points between departure and arrival,
// resolves each to its nearest airport, fetches weather, and flags hazards
func (a *Analyzer) Analyze(ctx context.Context, depLat, depLon, arrLat, arrLon float64) (Analysis, error) {
	metrics.RouteAnalysesTotal.Inc()

	samples := geo.SamplePath(depLat, depLon, arrLat, arrLon, a.config.SamplePoints)
	points := make([]PointConditions, len(samples))

	// Resolve nearest airports first; points with no airport within the
	// cap are unserved and skipped, never defaulted to a fake position.
	for i, s := range samples {
		pct := 0
		if len(samples) > 1 {
			pct = int(math.Round(float64(i) / float64(len(samples)-1) * 100))
		}
		points[i] = PointConditions{
			Latitude:     s[0],
			Longitude:    s[1],
			RoutePercent: pct,
		}

		nearest, distKm, ok := a.airports.Nearest(s[0], s[1])
		if !ok || distKm > a.config.MaxAirportDistanceKm {
			a.logger.Debug("Route point unserved, skipping",
				logger.Int("route_percent", pct),
				logger.Float64("nearest_km", distKm))
			continue
		}
		points[i].NearestAirport = nearest.ICAO
		points[i].DistanceKm = distKm
		points[i].Served = true
	}

	a.fetchConditions(ctx, points)

	analysis := Analysis{Points: points}
	analysis.Hazards = a.detectHazards(points)
	analysis.OverallConditions = classifyOverall(len(analysis.Hazards))
	analysis.RecommendedAltitude = recommendAltitude(analysis.Hazards)
	return analysis, ctx.Err()
}

// fetchConditions runs the per-point weather lookups over a bounded pool
func (a *Analyzer) fetchConditions(ctx context.Context, points []PointConditions) {
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := a.config.Workers
	if workers < 1 {
		workers = 1
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := a.limiter.Wait(ctx); err != nil {
					return
				}
				snap, err := a.provider.Snapshot(ctx, points[i].NearestAirport)
				if err != nil {
					a.logger.Warn("Failed to fetch route point weather",
						logger.String("airport", points[i].NearestAirport),
						logger.Int("route_percent", points[i].RoutePercent),
						logger.Error(err))
					points[i].Served = false
					continue
				}
				points[i].Snapshot = &snap
			}
		}()
	}

	// Workers that bail out on cancellation stop receiving, so the
	// producer must watch the context too or it blocks forever.
enqueue:
	for i := range points {
		if !points[i].Served {
			continue
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			break enqueue
		}
	}
	close(jobs)
	wg.Wait()
}

// detectHazards applies the per-point rules, then the adjacent-point wind
// shear rule over consecutive served points
func (a *Analyzer) detectHazards(points []PointConditions) []Hazard {
	var hazards []Hazard

	var prevWind float64
	havePrev := false
	for _, p := range points {
		if !p.Served || p.Snapshot == nil {
			continue
		}
		snap := p.Snapshot

		if snap.VisibilitySM < 3 {
			hazards = append(hazards, Hazard{
				Kind:           HazardLowVisibility,
				Description:    fmt.Sprintf("low visibility at %d%% route (%.1f sm near %s)", p.RoutePercent, snap.VisibilitySM, p.NearestAirport),
				RoutePercent:   p.RoutePercent,
				NearestAirport: p.NearestAirport,
			})
		}

		if snap.WindSpeedKt > 40 {
			hazards = append(hazards, Hazard{
				Kind:           HazardHighWind,
				Description:    fmt.Sprintf("high winds at %d%% route (%.0f kt near %s)", p.RoutePercent, snap.WindSpeedKt, p.NearestAirport),
				RoutePercent:   p.RoutePercent,
				NearestAirport: p.NearestAirport,
			})
		}

		if snap.TemperatureC < 0 && (snap.TemperatureC-snap.DewpointC) < 5 {
			hazards = append(hazards, Hazard{
				Kind:           HazardIcing,
				Description:    fmt.Sprintf("icing conditions at %d%% route (%.0f°C, %.0f°C spread near %s)", p.RoutePercent, snap.TemperatureC, snap.TemperatureC-snap.DewpointC, p.NearestAirport),
				RoutePercent:   p.RoutePercent,
				NearestAirport: p.NearestAirport,
			})
		}

		if havePrev && math.Abs(snap.WindSpeedKt-prevWind) > a.config.WindShearDeltaKt {
			hazards = append(hazards, Hazard{
				Kind:           HazardWindShear,
				Description:    fmt.Sprintf("possible wind shear at %d%% route (wind change %.0f kt)", p.RoutePercent, math.Abs(snap.WindSpeedKt-prevWind)),
				RoutePercent:   p.RoutePercent,
				NearestAirport: p.NearestAirport,
			})
		}
		prevWind = snap.WindSpeedKt
		havePrev = true
	}
	return hazards
}

// classifyOverall maps the hazard count onto the fixed labels
func classifyOverall(hazardCount int) string {
	switch {
	case hazardCount == 0:
		return "FAVORABLE"
	case hazardCount <= 2:
		return "CAUTION"
	default:
		return "HAZARDOUS"
	}
}

// recommendAltitude picks the cruise altitude; icing outranks turbulence
func recommendAltitude(hazards []Hazard) int {
	hasIcing, hasShear := false, false
	for _, h := range hazards {
		switch h.Kind {
		case HazardIcing:
			hasIcing = true
		case HazardWindShear:
			hasShear = true
		}
	}
	switch {
	case hasIcing:
		return 41000
	case hasShear:
		return 32000
	default:
		return 35000
	}
}
