package geo

import (
	"math"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

const (
	// EarthRadiusKm is the mean Earth radius used for spherical great-circle math
	EarthRadiusKm = 6371.0
	// EarthRadiusNM is the mean Earth radius in nautical miles
	EarthRadiusNM = 3440.065
)

// DistanceKm returns the great-circle distance in kilometers between two points
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	return haversine(lat1, lon1, lat2, lon2) * EarthRadiusKm
}

// DistanceNM returns the great-circle distance in nautical miles between two points
func DistanceNM(lat1, lon1, lat2, lon2 float64) float64 {
	return haversine(lat1, lon1, lat2, lon2) * EarthRadiusNM
}

// haversine returns the central angle in radians between two lat/lon points
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// InitialBearing returns the initial true course in degrees [0, 360) from
// point 1 to point 2 along the great circle
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	theta := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(theta+360, 360)
}

// Intermediate returns the point at fraction f (0..1) along the great circle
// from point 1 to point 2, computed by spherical interpolation
func Intermediate(lat1, lon1, lat2, lon2, f float64) (lat, lon float64) {
	delta := haversine(lat1, lon1, lat2, lon2)
	if delta == 0 {
		return lat1, lon1
	}

	phi1 := lat1 * math.Pi / 180
	lambda1 := lon1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	lambda2 := lon2 * math.Pi / 180

	a := math.Sin((1-f)*delta) / math.Sin(delta)
	b := math.Sin(f*delta) / math.Sin(delta)

	x := a*math.Cos(phi1)*math.Cos(lambda1) + b*math.Cos(phi2)*math.Cos(lambda2)
	y := a*math.Cos(phi1)*math.Sin(lambda1) + b*math.Cos(phi2)*math.Sin(lambda2)
	z := a*math.Sin(phi1) + b*math.Sin(phi2)

	lat = math.Atan2(z, math.Sqrt(x*x+y*y)) * 180 / math.Pi
	lon = math.Atan2(y, x) * 180 / math.Pi
	return lat, lon
}

// SamplePath returns n evenly spaced points along the great circle from
// point 1 to point 2, endpoints included. Degenerate requests (identical
// endpoints or n < 2) return exactly the two endpoints.
func SamplePath(lat1, lon1, lat2, lon2 float64, n int) [][2]float64 {
	if n < 2 || (lat1 == lat2 && lon1 == lon2) {
		return [][2]float64{{lat1, lon1}, {lat2, lon2}}
	}

	points := make([][2]float64, 0, n)
	for i := 0; i < n; i++ {
		f := float64(i) / float64(n-1)
		lat, lon := Intermediate(lat1, lon1, lat2, lon2, f)
		points = append(points, [2]float64{lat, lon})
	}
	return points
}

// MagneticCourse converts a true course at a position to a magnetic course
// using the World Magnetic Model. Declination failures fall back to the
// true course unchanged.
func MagneticCourse(trueCourse, lat, lon, altFt float64, date time.Time) float64 {
	altM := altFt * 0.3048
	loc := egm96.NewLocationGeodetic(lat, lon, altM)
	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		return trueCourse
	}
	course := trueCourse - mag.D()
	return math.Mod(course+360, 360)
}
