package wx

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Synthesizer generates plausible weather observations from geographic and
// seasonal models. It backs the aggregator when every live source fails.
// The random source is injected so a fixed seed yields fixed output.
type Synthesizer struct {
	mu          sync.Mutex
	rng         *rand.Rand
	adverseProb float64
}

// NewSynthesizer creates a synthesizer with the given adverse-weather
// probability and random source
func NewSynthesizer(adverseProb float64, rng *rand.Rand) *Synthesizer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Synthesizer{rng: rng, adverseProb: adverseProb}
}

// Generate produces a synthetic observation for an airport position at a
// point in time. Temperature follows a seasonal sine model adjusted for
// latitude; winds are stronger at high latitudes; adverse phenomena are
// injected with the configured probability.
func (s *Synthesizer) Generate(airport string, lat, lon float64, now time.Time) WeatherSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	dayOfYear := float64(now.YearDay())
	seasonal := 15 + 15*math.Sin(2*math.Pi*(dayOfYear-80)/365)
	latitudeAdjust := (50 - math.Abs(lat)) * 0.3
	temperature := seasonal + latitudeAdjust + s.rng.NormFloat64()*8

	var windSpeed float64
	if math.Abs(lat) > 40 {
		windSpeed = s.uniform(10, 22)
	} else {
		windSpeed = s.uniform(6, 16)
	}

	visibility := defaultVisibilitySM
	category := CategoryVFR
	var phenomena []string

	if s.rng.Float64() < s.adverseProb {
		options := []string{"RA", "SN", "FG", "BR", "TSRA"}
		condition := options[s.rng.Intn(len(options))]
		phenomena = []string{condition}
		switch condition {
		case "FG", "BR":
			visibility = s.uniform(1.5, 4.5)
			if visibility < 3 {
				category = CategoryIFR
			} else {
				category = CategoryMVFR
			}
		case "SN", "TSRA":
			visibility = s.uniform(2.5, 6.5)
			category = CategoryMVFR
		}
	}

	return WeatherSnapshot{
		Airport:        airport,
		Latitude:       lat,
		Longitude:      lon,
		TemperatureC:   round1(temperature),
		DewpointC:      round1(temperature - 5),
		WindSpeedKt:    math.Round(windSpeed),
		WindDirDeg:     math.Floor(s.uniform(0, 360)),
		VisibilitySM:   round1(visibility),
		PressureInHg:   round2(29.92 + s.rng.NormFloat64()*0.18),
		FlightCategory: category,
		Phenomena:      phenomena,
		Sources:        []Source{SourceSynthetic},
		ObservedAt:     now,
	}
}

func (s *Synthesizer) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
