package geo

import (
	"math"
	"time"
)

// Flight phase labels attached to route points
const (
	PhaseClimb   = "climb"
	PhaseCruise  = "cruise"
	PhaseDescent = "descent"
)

const (
	cruiseAltitudeFt    = 35000.0
	departureAltFt      = 2000.0
	cruiseGroundSpeedKt = 450.0

	climbEndFraction     = 0.15
	descentStartFraction = 0.85
)

// RoutePoint is one sampled position along a planned route
type RoutePoint struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	AltitudeFt float64 `json:"altitude_ft"`
	Phase      string  `json:"phase"`
	// DistanceNM is the cumulative great-circle distance from the route origin
	DistanceNM float64 `json:"distance_nm"`
}

// Leg is one airport-to-airport segment of a route
type Leg struct {
	From           string  `json:"from"`
	To             string  `json:"to"`
	DistanceNM     float64 `json:"distance_nm"`
	TrueCourse     float64 `json:"true_course_deg"`
	MagneticCourse float64 `json:"magnetic_course_deg"`
}

// Route is a fully sampled multi-leg route with distance and time estimates
type Route struct {
	Waypoints       []string      `json:"waypoints"`
	Legs            []Leg         `json:"legs"`
	Points          []RoutePoint  `json:"points"`
	TotalDistanceNM float64       `json:"total_distance_nm"`
	EstimatedTime   time.Duration `json:"estimated_time"`
}

// Endpoint is a named position used as a route waypoint
type Endpoint struct {
	Code      string
	Latitude  float64
	Longitude float64
}

// BuildRoute samples a multi-leg route through the given waypoints with
// pointsPerLeg points per leg. Consecutive legs share their junction
// waypoint, so the duplicate leading point of every leg after the first is
// dropped. Circular routes (first waypoint repeated last) are allowed.
func BuildRoute(waypoints []Endpoint, pointsPerLeg int, now time.Time) Route {
	route := Route{
		Waypoints: make([]string, 0, len(waypoints)),
	}
	for _, wp := range waypoints {
		route.Waypoints = append(route.Waypoints, wp.Code)
	}
	if len(waypoints) < 2 {
		return route
	}

	for i := 0; i < len(waypoints)-1; i++ {
		from, to := waypoints[i], waypoints[i+1]
		legPoints := SamplePath(from.Latitude, from.Longitude, to.Latitude, to.Longitude, pointsPerLeg)
		legDist := DistanceNM(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
		trueCourse := InitialBearing(from.Latitude, from.Longitude, to.Latitude, to.Longitude)

		route.Legs = append(route.Legs, Leg{
			From:           from.Code,
			To:             to.Code,
			DistanceNM:     legDist,
			TrueCourse:     trueCourse,
			MagneticCourse: MagneticCourse(trueCourse, from.Latitude, from.Longitude, cruiseAltitudeFt, now),
		})

		start := 0
		if i > 0 {
			start = 1
		}
		baseDist := route.TotalDistanceNM
		for j := start; j < len(legPoints); j++ {
			f := float64(j) / float64(len(legPoints)-1)
			route.Points = append(route.Points, RoutePoint{
				Latitude:   legPoints[j][0],
				Longitude:  legPoints[j][1],
				DistanceNM: baseDist + f*legDist,
			})
		}
		route.TotalDistanceNM += legDist
	}

	// Altitude and phase are assigned over the whole route, not per leg
	for i := range route.Points {
		f := 0.0
		if route.TotalDistanceNM > 0 {
			f = route.Points[i].DistanceNM / route.TotalDistanceNM
		}
		route.Points[i].AltitudeFt, route.Points[i].Phase = profileAt(f)
	}

	route.EstimatedTime = time.Duration(route.TotalDistanceNM / cruiseGroundSpeedKt * float64(time.Hour))
	return route
}

// profileAt returns the planned altitude and phase at route fraction f
func profileAt(f float64) (altFt float64, phase string) {
	switch {
	case f < climbEndFraction:
		return departureAltFt + (f/climbEndFraction)*(cruiseAltitudeFt-departureAltFt), PhaseClimb
	case f > descentStartFraction:
		remain := (1 - f) / (1 - descentStartFraction)
		return departureAltFt + remain*(cruiseAltitudeFt-departureAltFt), PhaseDescent
	default:
		return cruiseAltitudeFt, PhaseCruise
	}
}

// PositionAtFraction interpolates the route position at fraction f of the
// total distance flown. Used by flight monitoring to estimate progress.
func (r Route) PositionAtFraction(f float64) (lat, lon float64) {
	if len(r.Points) == 0 {
		return 0, 0
	}
	f = math.Max(0, math.Min(1, f))
	target := f * r.TotalDistanceNM
	for i := 1; i < len(r.Points); i++ {
		if r.Points[i].DistanceNM >= target {
			prev, next := r.Points[i-1], r.Points[i]
			span := next.DistanceNM - prev.DistanceNM
			if span <= 0 {
				return next.Latitude, next.Longitude
			}
			lf := (target - prev.DistanceNM) / span
			return Intermediate(prev.Latitude, prev.Longitude, next.Latitude, next.Longitude, lf)
		}
	}
	last := r.Points[len(r.Points)-1]
	return last.Latitude, last.Longitude
}
