package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utkarshhzz/AviFlux/internal/wx"
)

func calmSnapshot(icao string) wx.WeatherSnapshot {
	return wx.WeatherSnapshot{
		Airport:        icao,
		TemperatureC:   15,
		DewpointC:      10,
		WindSpeedKt:    8,
		WindDirDeg:     270,
		VisibilitySM:   10,
		PressureInHg:   29.92,
		FlightCategory: wx.CategoryVFR,
	}
}

func TestClassificationBandEdges(t *testing.T) {
	cases := []struct {
		score int
		want  Classification
	}{
		{0, ClassLow},
		{30, ClassLow},
		{31, ClassModerate},
		{55, ClassModerate},
		{56, ClassHigh},
		{80, ClassHigh},
		{81, ClassExtreme},
		{100, ClassExtreme},
	}
	for _, tc := range cases {
		got, _ := classify(tc.score)
		assert.Equal(t, tc.want, got, "score %d", tc.score)
	}
}

func TestRecommendationsPerBand(t *testing.T) {
	_, rec := classify(10)
	assert.Contains(t, rec, "cleared")
	_, rec = classify(40)
	assert.Contains(t, rec, "aution")
	_, rec = classify(70)
	assert.Contains(t, rec, "elay")
	_, rec = classify(90)
	assert.Contains(t, rec, "Do not fly")
}

func TestScoreCalmConditions(t *testing.T) {
	a := Score(Inputs{
		Departure: calmSnapshot("KJFK"),
		Arrival:   calmSnapshot("KLAX"),
	})

	assert.Zero(t, a.Score)
	assert.Equal(t, ClassLow, a.Classification)
	assert.Empty(t, a.Factors)
	assert.Empty(t, a.Risks)
}

func TestScoreMonotonicInWind(t *testing.T) {
	prev := -1
	for _, wind := range []float64{10, 30, 40, 50} {
		dep := calmSnapshot("KJFK")
		dep.WindSpeedKt = wind
		a := Score(Inputs{Departure: dep, Arrival: calmSnapshot("KLAX")})
		assert.GreaterOrEqual(t, a.Score, prev, "wind %.0f", wind)
		prev = a.Score
	}
}

func TestScoreSidesIndependent(t *testing.T) {
	dep := calmSnapshot("KJFK")
	dep.WindSpeedKt = 45
	arr := calmSnapshot("KLAX")
	arr.WindSpeedKt = 45

	a := Score(Inputs{Departure: dep, Arrival: arr})
	assert.Equal(t, 56, a.Score)
	require.Len(t, a.Factors, 2)
	assert.Equal(t, "wind_departure", a.Factors[0].Name)
	assert.Equal(t, 28, a.Factors[0].Points)
	assert.Equal(t, "wind_arrival", a.Factors[1].Name)
}

func TestScoreVisibilityAndPhenomena(t *testing.T) {
	dep := calmSnapshot("KJFK")
	dep.VisibilitySM = 1.5
	dep.Phenomena = []string{"+TSRA"}

	a := Score(Inputs{Departure: dep, Arrival: calmSnapshot("KLAX")})
	// 32 visibility + 22 phenomena
	assert.Equal(t, 54, a.Score)
	assert.Equal(t, ClassModerate, a.Classification)
	assert.Len(t, a.Risks, 2)
}

func TestScoreRouteConditions(t *testing.T) {
	a := Score(Inputs{
		Departure:       calmSnapshot("KJFK"),
		Arrival:         calmSnapshot("KLAX"),
		RouteConditions: RouteHazardous,
	})
	assert.Equal(t, 38, a.Score)

	a = Score(Inputs{
		Departure:       calmSnapshot("KJFK"),
		Arrival:         calmSnapshot("KLAX"),
		RouteConditions: RouteCaution,
	})
	assert.Equal(t, 18, a.Score)
}

func TestScoreAdvisoryTiers(t *testing.T) {
	dep := calmSnapshot("KJFK")
	dep.Advisories = []wx.AdvisoryWarning{{Hazard: wx.HazardTurbulence}}

	a := Score(Inputs{Departure: dep, Arrival: calmSnapshot("KLAX")})
	assert.Equal(t, 8, a.Score)

	dep.Advisories = append(dep.Advisories,
		wx.AdvisoryWarning{Hazard: wx.HazardIcing},
		wx.AdvisoryWarning{Hazard: wx.HazardConvective})
	a = Score(Inputs{Departure: dep, Arrival: calmSnapshot("KLAX")})
	assert.Equal(t, 15, a.Score)
}

func TestScorePredictionTiers(t *testing.T) {
	base := Inputs{Departure: calmSnapshot("KJFK"), Arrival: calmSnapshot("KLAX")}

	base.Predictions = map[string]float64{"turbulence": 0.5}
	assert.Equal(t, 12, Score(base).Score)
	base.Predictions = map[string]float64{"turbulence": 0.7}
	assert.Equal(t, 20, Score(base).Score)

	base.Predictions = map[string]float64{"icing": 0.5}
	assert.Equal(t, 14, Score(base).Score)
	base.Predictions = map[string]float64{"icing": 0.7}
	assert.Equal(t, 22, Score(base).Score)

	base.Predictions = map[string]float64{"convective": 0.4}
	assert.Equal(t, 18, Score(base).Score)
	base.Predictions = map[string]float64{"convective": 0.7}
	assert.Equal(t, 30, Score(base).Score)
}

func TestScoreClampsAtHundred(t *testing.T) {
	storm := calmSnapshot("KJFK")
	storm.WindSpeedKt = 60
	storm.VisibilitySM = 0.5
	storm.Phenomena = []string{"TSRA"}
	storm.Advisories = []wx.AdvisoryWarning{
		{Hazard: wx.HazardConvective},
		{Hazard: wx.HazardTurbulence},
		{Hazard: wx.HazardIcing},
	}

	a := Score(Inputs{
		Departure:       storm,
		Arrival:         storm,
		RouteConditions: RouteHazardous,
		Predictions: map[string]float64{
			"turbulence": 0.9, "icing": 0.9, "convective": 0.9,
		},
	})

	assert.Equal(t, 100, a.Score)
	assert.Equal(t, ClassExtreme, a.Classification)
	assert.Equal(t, "Do not fly", a.Recommendation)

	// Every triggered factor is itemized and sums past the clamp
	sum := 0
	for _, f := range a.Factors {
		sum += f.Points
	}
	assert.Greater(t, sum, 100)
}

func TestConfigurableThresholds(t *testing.T) {
	dep := calmSnapshot("KJFK")
	dep.WindSpeedKt = 30

	// Default limit of 35 kt does not trigger
	a := Score(Inputs{Departure: dep, Arrival: calmSnapshot("KLAX")})
	assert.Zero(t, a.Score)

	// A stricter limit does
	a = Score(Inputs{Departure: dep, Arrival: calmSnapshot("KLAX"), WindLimitKt: 25})
	assert.Equal(t, 28, a.Score)
}
