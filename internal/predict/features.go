package predict

import (
	"math"
	"time"

	"github.com/utkarshhzz/AviFlux/internal/wx"
)

// FeatureCount is the fixed length of the feature vector every predictor receives
const FeatureCount = 26

// Historical carries the stored-observation inputs to the feature builder.
// Zero values fall back to standard-atmosphere defaults.
type Historical struct {
	AvgTemperatureC float64
	AvgWindSpeedKt  float64
	LastPressure    float64
	HasHistory      bool
}

// FeatureInput bundles everything the feature builder consumes
type FeatureInput struct {
	Snapshot    wx.WeatherSnapshot
	ElevationFt float64
	History     Historical
	Now         time.Time
}

// BuildFeatures assembles the fixed-order feature vector. The order is part
// of the predictor contract and must never change: trained models index
// into it positionally.
func BuildFeatures(in FeatureInput) []float64 {
	snap := in.Snapshot
	now := in.Now

	features := make([]float64, 0, FeatureCount)

	// Observation
	features = append(features,
		snap.TemperatureC,
		snap.WindSpeedKt,
		snap.WindDirDeg,
		snap.PressureInHg,
		snap.VisibilitySM,
	)

	// Geography
	features = append(features,
		snap.Latitude,
		snap.Longitude,
		in.ElevationFt/1000.0,
	)

	// Time
	features = append(features,
		float64(now.Hour()),
		float64(now.Month()),
		float64(now.Weekday()),
		float64(now.Day()),
	)

	// Historical averages
	avgTemp, avgWind := 15.0, 10.0
	if in.History.HasHistory {
		avgTemp = in.History.AvgTemperatureC
		avgWind = in.History.AvgWindSpeedKt
	}
	features = append(features, avgTemp, avgWind)

	// Pilot reports
	var turbReports, icingReports float64
	for _, pr := range snap.PilotReports {
		switch pr.Hazard {
		case wx.HazardTurbulence:
			turbReports++
		case wx.HazardIcing:
			icingReports++
		}
	}
	features = append(features,
		float64(len(snap.PilotReports)),
		turbReports,
		icingReports,
	)

	// Advisories
	var convectiveAdv, turbAdv float64
	for _, adv := range snap.Advisories {
		switch adv.Hazard {
		case wx.HazardConvective:
			convectiveAdv++
		case wx.HazardTurbulence:
			turbAdv++
		}
	}
	features = append(features,
		float64(len(snap.Advisories)),
		convectiveAdv,
		turbAdv,
	)

	// Pressure tendency, amplified so small changes register
	tendency := 0.0
	if in.History.HasHistory && in.History.LastPressure != 0 {
		tendency = (snap.PressureInHg - in.History.LastPressure) * 100
	}
	features = append(features, tendency)

	spread := math.Abs(snap.TemperatureC - snap.DewpointC)
	features = append(features, spread)

	crosswind := snap.WindSpeedKt * math.Abs(math.Sin(snap.WindDirDeg*math.Pi/180))
	features = append(features, crosswind)

	// Peaks in July, bottoms out in January
	seasonal := math.Cos((float64(now.Month()) - 7) * math.Pi / 6)
	features = append(features, seasonal)

	features = append(features, reliabilityScore(snap))
	features = append(features, complexityScore(snap, spread))

	return features
}

// reliabilityScore grades how much independent corroboration the snapshot has
func reliabilityScore(snap wx.WeatherSnapshot) float64 {
	score := float64(len(snap.Sources)) * 10
	for _, src := range snap.Sources {
		switch src {
		case wx.SourceMETAR:
			score += 20
		case wx.SourceTAF:
			score += 15
		case wx.SourcePIREP:
			score += 10
		}
	}
	return math.Min(score, 100)
}

// complexityScore grades how operationally demanding the weather pattern is
func complexityScore(snap wx.WeatherSnapshot, spread float64) float64 {
	score := 0.0
	if snap.VisibilitySM < 3 {
		score += 30
	}
	if snap.WindSpeedKt > 25 {
		score += 20
	}
	if spread < 3 {
		score += 15
	}
	return score
}
