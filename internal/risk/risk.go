package risk

import (
	"fmt"
	"strings"

	"github.com/utkarshhzz/AviFlux/internal/metrics"
	"github.com/utkarshhzz/AviFlux/internal/wx"
)

// Classification is the final go/no-go band
type Classification string

const (
	ClassLow      Classification = "LOW"
	ClassModerate Classification = "MODERATE"
	ClassHigh     Classification = "HIGH"
	ClassExtreme  Classification = "EXTREME"
)

// Route-level condition labels consumed from the route analyzer
const (
	RouteFavorable = "FAVORABLE"
	RouteCaution   = "CAUTION"
	RouteHazardous = "HAZARDOUS"
)

// Factor is one triggered scoring rule with its point contribution.
// Every triggered rule is listed; nothing is silently folded in.
type Factor struct {
	Name   string `json:"name"`
	Detail string `json:"detail"`
	Points int    `json:"points"`
}

// Assessment is the complete scored output for one departure/arrival pair
type Assessment struct {
	Score          int            `json:"score"`
	Classification Classification `json:"classification"`
	Recommendation string         `json:"recommendation"`
	Factors        []Factor       `json:"factors"`
	Risks          []string       `json:"identified_risks"`
}

// Inputs bundles everything the scoring function consumes. RouteConditions
// and Predictions are optional enrichments. Zero thresholds fall back to
// the standard limits.
type Inputs struct {
	Departure       wx.WeatherSnapshot
	Arrival         wx.WeatherSnapshot
	RouteConditions string
	Predictions     map[string]float64
	WindLimitKt     float64
	VisibilityMinSM float64
}

// hazardTokens are the phenomena that trigger the phenomena factor
var hazardTokens = []string{"TS", "TSRA", "FZRA", "SN", "BLSN", "FG", "TORNADO"}

// Standard per-side thresholds
const (
	defaultWindLimitKt     = 35.0
	defaultVisibilityMinSM = 3.0
)

// Score computes a fresh risk assessment. It is a pure function of its
// inputs: same weather and same route always yield the same score.
func Score(in Inputs) Assessment {
	if in.WindLimitKt == 0 {
		in.WindLimitKt = defaultWindLimitKt
	}
	if in.VisibilityMinSM == 0 {
		in.VisibilityMinSM = defaultVisibilityMinSM
	}

	var a Assessment

	a.scoreSide("departure", in.Departure, in.WindLimitKt, in.VisibilityMinSM)
	a.scoreSide("arrival", in.Arrival, in.WindLimitKt, in.VisibilityMinSM)

	switch in.RouteConditions {
	case RouteHazardous:
		a.add("route_conditions", "hazardous conditions along route", 38)
	case RouteCaution:
		a.add("route_conditions", "caution conditions along route", 18)
	}

	advisories := len(in.Departure.Advisories) + len(in.Arrival.Advisories)
	if advisories > 2 {
		a.add("advisories", fmt.Sprintf("%d active weather advisories", advisories), 15)
	} else if advisories > 0 {
		a.add("advisories", fmt.Sprintf("%d active weather advisories", advisories), 8)
	}

	a.scorePredictions(in.Predictions)

	if a.Score > 100 {
		a.Score = 100
	}
	if a.Score < 0 {
		a.Score = 0
	}

	a.Classification, a.Recommendation = classify(a.Score)
	metrics.AssessmentsTotal.WithLabelValues(string(a.Classification)).Inc()
	return a
}

// scoreSide applies the per-airport rules independently for one side
func (a *Assessment) scoreSide(side string, snap wx.WeatherSnapshot, windLimitKt, visibilityMinSM float64) {
	if snap.WindSpeedKt > windLimitKt {
		a.add("wind_"+side,
			fmt.Sprintf("%s winds %.0f kt exceed %.0f kt limit", side, snap.WindSpeedKt, windLimitKt), 28)
		a.Risks = append(a.Risks,
			fmt.Sprintf("High winds at %s (%s): %.0f kt", side, snap.Airport, snap.WindSpeedKt))
	}

	if snap.VisibilitySM < visibilityMinSM {
		a.add("visibility_"+side,
			fmt.Sprintf("%s visibility %.1f sm below %.0f sm minimum", side, snap.VisibilitySM, visibilityMinSM), 32)
		a.Risks = append(a.Risks,
			fmt.Sprintf("Low visibility at %s (%s): %.1f sm", side, snap.Airport, snap.VisibilitySM))
	}

	if token := firstHazardToken(snap.Phenomena); token != "" {
		a.add("phenomena_"+side,
			fmt.Sprintf("%s reporting hazardous phenomenon %s", side, token), 22)
		a.Risks = append(a.Risks,
			fmt.Sprintf("Hazardous weather at %s (%s): %s", side, snap.Airport, token))
	}
}

// scorePredictions applies the tiered model-output rules
func (a *Assessment) scorePredictions(preds map[string]float64) {
	if v, ok := preds["turbulence"]; ok {
		switch {
		case v > 0.6:
			a.add("prediction_turbulence", fmt.Sprintf("turbulence risk %.2f", v), 20)
			a.Risks = append(a.Risks, "Significant turbulence forecast along route")
		case v > 0.4:
			a.add("prediction_turbulence", fmt.Sprintf("turbulence risk %.2f", v), 12)
		}
	}
	if v, ok := preds["icing"]; ok {
		switch {
		case v > 0.6:
			a.add("prediction_icing", fmt.Sprintf("icing risk %.2f", v), 22)
			a.Risks = append(a.Risks, "Significant icing risk forecast along route")
		case v > 0.4:
			a.add("prediction_icing", fmt.Sprintf("icing risk %.2f", v), 14)
		}
	}
	if v, ok := preds["convective"]; ok {
		switch {
		case v > 0.6:
			a.add("prediction_convective", fmt.Sprintf("convective risk %.2f", v), 30)
			a.Risks = append(a.Risks, "Convective activity forecast along route")
		case v > 0.3:
			a.add("prediction_convective", fmt.Sprintf("convective risk %.2f", v), 18)
		}
	}
}

func (a *Assessment) add(name, detail string, points int) {
	a.Factors = append(a.Factors, Factor{Name: name, Detail: detail, Points: points})
	a.Score += points
}

// firstHazardToken returns the first phenomena token on the hazard list
func firstHazardToken(phenomena []string) string {
	for _, raw := range phenomena {
		token := strings.ToUpper(raw)
		// Intensity prefixes like +TSRA or -SN still count
		token = strings.TrimLeft(token, "+-")
		for _, hazard := range hazardTokens {
			if token == hazard {
				return token
			}
		}
	}
	return ""
}

// classify maps a clamped score onto the fixed bands, inclusive on the
// lower bound of each band
func classify(score int) (Classification, string) {
	switch {
	case score <= 30:
		return ClassLow, "Flight cleared for takeoff"
	case score <= 55:
		return ClassModerate, "Caution advised, review conditions before departure"
	case score <= 80:
		return ClassHigh, "Delay recommended until conditions improve"
	default:
		return ClassExtreme, "Do not fly"
	}
}
