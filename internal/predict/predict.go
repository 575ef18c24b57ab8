package predict

import (
	"fmt"

	"github.com/utkarshhzz/AviFlux/internal/wx"
	"github.com/utkarshhzz/AviFlux/pkg/logger"
)

// PredictFn maps a feature vector to a scalar prediction
type PredictFn func(features []float64) (float64, error)

// Known predictor names. The set is fixed so confidence scoring can grade
// coverage against a stable total.
const (
	PredictorTemperature    = "temperature"
	PredictorWind           = "wind"
	PredictorPressure       = "pressure"
	PredictorTurbulence     = "turbulence"
	PredictorIcing          = "icing"
	PredictorConvective     = "convective"
	PredictorClassification = "classification"
)

// KnownPredictors is the full predictor set a deployment may register
var KnownPredictors = []string{
	PredictorTemperature,
	PredictorWind,
	PredictorPressure,
	PredictorTurbulence,
	PredictorIcing,
	PredictorConvective,
	PredictorClassification,
}

// Confidence classifies how much trust the prediction set deserves
type Confidence string

const (
	ConfidenceVeryHigh Confidence = "VERY HIGH"
	ConfidenceHigh     Confidence = "HIGH"
	ConfidenceModerate Confidence = "MODERATE"
	ConfidenceLow      Confidence = "LOW"
)

// Result is the output of one prediction pass. Values holds only the
// predictors that responded; callers check presence by key.
type Result struct {
	Values     map[string]float64 `json:"values"`
	Confidence Confidence         `json:"confidence"`
	Features   []float64          `json:"-"`
}

// Adapter invokes a registered set of opaque predictors against a feature
// vector built from a snapshot. A missing or failing predictor simply
// omits its key.
type Adapter struct {
	predictors map[string]PredictFn
	logger     *logger.Logger
}

// NewAdapter creates a prediction adapter over a predictor registry,
// built once at startup. An absent model means an absent map key; no
// substitute estimator is ever constructed in its place.
func NewAdapter(predictors map[string]PredictFn, log *logger.Logger) *Adapter {
	if predictors == nil {
		predictors = map[string]PredictFn{}
	}
	return &Adapter{predictors: predictors, logger: log.Named("predict")}
}

// Predict builds the feature vector and runs every registered predictor
func (a *Adapter) Predict(in FeatureInput) Result {
	features := BuildFeatures(in)

	values := make(map[string]float64, len(a.predictors))
	for name, fn := range a.predictors {
		v, err := fn(features)
		if err != nil {
			a.logger.Warn("Predictor failed, omitting",
				logger.String("predictor", name),
				logger.Error(err))
			continue
		}
		values[name] = v
	}

	return Result{
		Values:     values,
		Confidence: confidenceFor(in.Snapshot, in.History, len(values)),
		Features:   features,
	}
}

// ValidateFeatures guards predictor implementations against vector drift
func ValidateFeatures(features []float64) error {
	if len(features) != FeatureCount {
		return fmt.Errorf("feature vector has %d entries, want %d", len(features), FeatureCount)
	}
	return nil
}

// confidenceFor grades trust from source coverage plus predictor coverage
func confidenceFor(snap wx.WeatherSnapshot, hist Historical, predictorsResponded int) Confidence {
	score := 0
	for _, src := range snap.Sources {
		switch src {
		case wx.SourceMETAR:
			score += 25
		case wx.SourceTAF:
			score += 20
		case wx.SourcePIREP:
			score += 15
		case wx.SourceSIGMET:
			score += 10
		}
	}
	if hist.HasHistory {
		score += 10
	}

	switch {
	case predictorsResponded >= 7:
		score += 20
	case predictorsResponded >= 5:
		score += 15
	case predictorsResponded >= 3:
		score += 10
	}

	switch {
	case score >= 85:
		return ConfidenceVeryHigh
	case score >= 70:
		return ConfidenceHigh
	case score >= 50:
		return ConfidenceModerate
	default:
		return ConfidenceLow
	}
}
