package wx

import (
	"time"
)

// FlightCategory is the standard ceiling/visibility classification
type FlightCategory string

const (
	CategoryVFR  FlightCategory = "VFR"
	CategoryMVFR FlightCategory = "MVFR"
	CategoryIFR  FlightCategory = "IFR"
	CategoryLIFR FlightCategory = "LIFR"
)

// Source identifies where a piece of a snapshot came from
type Source string

const (
	SourceMETAR     Source = "metar"
	SourceTAF       Source = "taf"
	SourcePIREP     Source = "pirep"
	SourceSIGMET    Source = "sigmet"
	SourceSynthetic Source = "synthetic_fallback"
)

// WeatherSnapshot is the merged per-airport view of all source adapters.
// Numeric fields are always populated; missing source data is filled with
// standard-atmosphere defaults so downstream scoring never sees nulls.
type WeatherSnapshot struct {
	Airport        string            `json:"airport"`
	Latitude       float64           `json:"latitude"`
	Longitude      float64           `json:"longitude"`
	TemperatureC   float64           `json:"temperature_celsius"`
	DewpointC      float64           `json:"dewpoint_celsius"`
	WindSpeedKt    float64           `json:"wind_speed_knots"`
	WindDirDeg     float64           `json:"wind_direction_degrees"`
	VisibilitySM   float64           `json:"visibility_statute_miles"`
	PressureInHg   float64           `json:"barometric_pressure_inhg"`
	FlightCategory FlightCategory    `json:"flight_category"`
	Phenomena      []string          `json:"weather_phenomena"`
	RawMETAR       string            `json:"raw_metar,omitempty"`
	RawTAF         string            `json:"raw_taf,omitempty"`
	PilotReports   []PilotReport     `json:"pilot_reports,omitempty"`
	Advisories     []AdvisoryWarning `json:"advisories,omitempty"`
	Sources        []Source          `json:"sources"`
	DataQuality    float64           `json:"data_quality_score"`
	ObservedAt     time.Time         `json:"observation_time"`
	FetchErrors    []string          `json:"fetch_errors,omitempty"`
}

// HazardTag classifies a pilot report or advisory
type HazardTag string

const (
	HazardTurbulence HazardTag = "turbulence"
	HazardIcing      HazardTag = "icing"
	HazardConvective HazardTag = "convective"
	HazardOther      HazardTag = "other"
)

// PilotReport is one in-flight observation near an airport
type PilotReport struct {
	Raw        string    `json:"raw"`
	Hazard     HazardTag `json:"hazard"`
	Intensity  string    `json:"intensity,omitempty"`
	AltitudeFt float64   `json:"altitude_ft,omitempty"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	ReportedAt time.Time `json:"reported_at"`
}

// AdvisoryWarning is a SIGMET/AIRMET area advisory
type AdvisoryWarning struct {
	Raw        string    `json:"raw"`
	Hazard     HazardTag `json:"hazard"`
	Severity   string    `json:"severity,omitempty"`
	ValidFrom  time.Time `json:"valid_from"`
	ValidUntil time.Time `json:"valid_until"`
}

// ActiveNow reports whether the advisory validity window covers t.
// Advisories with no parsed window are treated as active.
func (a AdvisoryWarning) ActiveNow(t time.Time) bool {
	if a.ValidFrom.IsZero() && a.ValidUntil.IsZero() {
		return true
	}
	if !a.ValidFrom.IsZero() && t.Before(a.ValidFrom) {
		return false
	}
	if !a.ValidUntil.IsZero() && t.After(a.ValidUntil) {
		return false
	}
	return true
}

// SourceKind identifies one adapter in fetch results
type SourceKind string

const (
	KindMETAR  SourceKind = "metar"
	KindTAF    SourceKind = "taf"
	KindPIREP  SourceKind = "pirep"
	KindSIGMET SourceKind = "airsigmet"
)

// FetchResult is the outcome of one source adapter call
type FetchResult struct {
	Kind SourceKind
	Data any
	Err  error
}

// METARResponse mirrors the aviationweather.gov JSON METAR record.
// Wind direction and visibility arrive as either numbers or strings
// ("VRB", "10+"), so they are decoded loosely and parsed afterwards.
type METARResponse struct {
	ICAOID     string   `json:"icaoId"`
	RawOb      string   `json:"rawOb"`
	ReportTime string   `json:"reportTime"`
	Temp       *float64 `json:"temp"`
	Dewp       *float64 `json:"dewp"`
	Wdir       any      `json:"wdir"`
	Wspd       *float64 `json:"wspd"`
	WgstKt     *float64 `json:"wgst"`
	Visib      any      `json:"visib"`
	Altim      *float64 `json:"altim"`
	WxString   string   `json:"wxString"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
}

// TAFResponse mirrors the aviationweather.gov JSON TAF record
type TAFResponse struct {
	ICAOID    string `json:"icaoId"`
	RawTAF    string `json:"rawTAF"`
	IssueTime string `json:"issueTime"`
	ValidFrom string `json:"validTimeFrom,omitempty"`
	ValidTo   string `json:"validTimeTo,omitempty"`
}

// PIREPResponse mirrors the aviationweather.gov JSON PIREP record
type PIREPResponse struct {
	RawOb    string   `json:"rawOb"`
	ObsTime  string   `json:"obsTime"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	FltLvl   string   `json:"fltLvl"`
	TbInt    string   `json:"tbInt1,omitempty"`
	IcgInt   string   `json:"icgInt1,omitempty"`
	AcType   string   `json:"acType,omitempty"`
	Altitude *float64 `json:"altitudeFt,omitempty"`
}

// AirSigmetResponse mirrors the aviationweather.gov JSON AIRMET/SIGMET record
type AirSigmetResponse struct {
	RawAirSigmet  string `json:"rawAirSigmet"`
	Hazard        string `json:"hazard"`
	Severity      string `json:"severity,omitempty"`
	AirSigmetType string `json:"airSigmetType"`
	ValidFrom     string `json:"validTimeFrom,omitempty"`
	ValidTo       string `json:"validTimeTo,omitempty"`
}
