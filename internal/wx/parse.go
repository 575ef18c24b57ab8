package wx

import (
	"strconv"
	"strings"
	"time"
)

// Standard-atmosphere defaults used whenever a METAR field is absent or
// unparseable. Downstream scoring requires every numeric field populated.
const (
	defaultTemperatureC = 15.0
	defaultWindSpeedKt  = 10.0
	defaultWindDirDeg   = 270.0
	defaultPressureInHg = 30.0
	defaultVisibilitySM = 10.0
)

// snapshotFromMETAR populates the numeric fields of a snapshot from a
// decoded METAR record, falling back to standard defaults for anything
// the report omits.
func snapshotFromMETAR(snap *WeatherSnapshot, m *METARResponse) {
	snap.RawMETAR = m.RawOb

	snap.TemperatureC = defaultTemperatureC
	if m.Temp != nil {
		snap.TemperatureC = *m.Temp
	}

	// Dewpoint defaults to 5 degrees below ambient when unreported
	snap.DewpointC = snap.TemperatureC - 5
	if m.Dewp != nil {
		snap.DewpointC = *m.Dewp
	}

	snap.WindSpeedKt = defaultWindSpeedKt
	if m.Wspd != nil {
		snap.WindSpeedKt = *m.Wspd
	}

	snap.WindDirDeg = ParseWindDirection(m.Wdir)
	snap.VisibilitySM = ParseVisibility(m.Visib)

	snap.PressureInHg = defaultPressureInHg
	if m.Altim != nil {
		snap.PressureInHg = *m.Altim
	}

	snap.Phenomena = SplitPhenomena(m.WxString)
	snap.FlightCategory = CategoryForVisibility(snap.VisibilitySM)

	if t, err := time.Parse(time.RFC3339, m.ReportTime); err == nil {
		snap.ObservedAt = t
	} else if t, err := time.Parse("2006-01-02 15:04:05", m.ReportTime); err == nil {
		snap.ObservedAt = t.UTC()
	}
}

// ParseWindDirection normalizes the wdir field, which the feed reports as
// a number or as the string "VRB" for variable winds. Variable and missing
// directions are treated as westerly.
func ParseWindDirection(raw any) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		s := strings.ToUpper(strings.TrimSpace(v))
		if s == "" || s == "VRB" {
			return defaultWindDirDeg
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return defaultWindDirDeg
}

// ParseVisibility normalizes the visib field. The feed reports numbers or
// strings like "10+", "6SM", "unlimited"; unparseable values default to
// 10 statute miles.
func ParseVisibility(raw any) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if s == "unlimited" || s == "unltd" {
			return defaultVisibilitySM
		}
		s = strings.TrimSuffix(s, "sm")
		s = strings.TrimSuffix(s, "+")
		s = strings.TrimSpace(s)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return defaultVisibilitySM
}

// SplitPhenomena splits a METAR wxString into individual phenomenon tokens
func SplitPhenomena(wx string) []string {
	fields := strings.Fields(strings.TrimSpace(wx))
	if len(fields) == 0 {
		return nil
	}
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, strings.ToUpper(f))
	}
	return tokens
}

// CategoryForVisibility classifies visibility alone, with ceilings
// unavailable from the merged snapshot
func CategoryForVisibility(visSM float64) FlightCategory {
	switch {
	case visSM < 1:
		return CategoryLIFR
	case visSM < 3:
		return CategoryIFR
	case visSM <= 5:
		return CategoryMVFR
	default:
		return CategoryVFR
	}
}

// classifyHazard maps free-text hazard descriptions onto the fixed tag set
func classifyHazard(s string) HazardTag {
	u := strings.ToUpper(s)
	switch {
	case strings.Contains(u, "TURB"):
		return HazardTurbulence
	case strings.Contains(u, "ICE") || strings.Contains(u, "ICG") || strings.Contains(u, "ICING") || strings.Contains(u, "FZ"):
		return HazardIcing
	case strings.Contains(u, "CONVECTIVE") || strings.Contains(u, "TS") || strings.Contains(u, "CONV"):
		return HazardConvective
	default:
		return HazardOther
	}
}

// pilotReportFrom converts a decoded PIREP record
func pilotReportFrom(p PIREPResponse) PilotReport {
	pr := PilotReport{
		Raw:       p.RawOb,
		Latitude:  p.Lat,
		Longitude: p.Lon,
	}

	switch {
	case p.TbInt != "":
		pr.Hazard = HazardTurbulence
		pr.Intensity = p.TbInt
	case p.IcgInt != "":
		pr.Hazard = HazardIcing
		pr.Intensity = p.IcgInt
	default:
		pr.Hazard = classifyHazard(p.RawOb)
	}

	if p.Altitude != nil {
		pr.AltitudeFt = *p.Altitude
	} else if fl, err := strconv.ParseFloat(strings.TrimSpace(p.FltLvl), 64); err == nil {
		pr.AltitudeFt = fl * 100
	}

	if t, err := time.Parse(time.RFC3339, p.ObsTime); err == nil {
		pr.ReportedAt = t
	}
	return pr
}

// advisoryFrom converts a decoded AIRMET/SIGMET record
func advisoryFrom(a AirSigmetResponse) AdvisoryWarning {
	adv := AdvisoryWarning{
		Raw:      a.RawAirSigmet,
		Hazard:   classifyHazard(a.Hazard),
		Severity: a.Severity,
	}
	if t, err := time.Parse(time.RFC3339, a.ValidFrom); err == nil {
		adv.ValidFrom = t
	}
	if t, err := time.Parse(time.RFC3339, a.ValidTo); err == nil {
		adv.ValidUntil = t
	}
	return adv
}
