package airports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/utkarshhzz/AviFlux/internal/geo"
	"github.com/utkarshhzz/AviFlux/pkg/logger"
)

// Airport is one immutable reference-data record
type Airport struct {
	ICAO        string  `json:"icao"`
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	ElevationFt float64 `json:"elevation_ft"`
}

// UnknownAirportError is the one caller-visible failure of the engine:
// an ICAO code with no coordinate entry. It always identifies the codes
// that failed so route computation errors are actionable.
type UnknownAirportError struct {
	Codes []string
}

func (e *UnknownAirportError) Error() string {
	return fmt.Sprintf("unknown airport code(s): %s", strings.Join(e.Codes, ", "))
}

// IsUnknownAirport reports whether err wraps an UnknownAirportError
func IsUnknownAirport(err error) bool {
	var ue *UnknownAirportError
	return errors.As(err, &ue)
}

// Store is an immutable airport reference store, bulk-loaded once at
// process start and passed into every component that needs it.
type Store struct {
	byICAO map[string]Airport
	logger *logger.Logger
}

// LoadCSV loads the store from an OurAirports-format CSV file.
// Expected columns: id, ident, type, name, latitude_deg, longitude_deg, elevation_ft, ...
func LoadCSV(path string, log *logger.Logger) (*Store, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open airports database: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.LazyQuotes = true

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read airports CSV header: %w", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read airports CSV: %w", err)
	}

	store := &Store{
		byICAO: make(map[string]Airport, len(records)),
		logger: log.Named("airports"),
	}

	skipped := 0
	for _, record := range records {
		if len(record) < 7 {
			skipped++
			continue
		}

		ident := strings.ToUpper(strings.TrimSpace(record[1]))
		if len(ident) != 4 {
			skipped++
			continue
		}

		lat, latErr := strconv.ParseFloat(record[4], 64)
		lon, lonErr := strconv.ParseFloat(record[5], 64)
		if latErr != nil || lonErr != nil {
			skipped++
			continue
		}

		var elev float64
		if record[6] != "" {
			if v, err := strconv.ParseFloat(record[6], 64); err == nil {
				elev = v
			}
		}

		store.byICAO[ident] = Airport{
			ICAO:        ident,
			Name:        record[3],
			Latitude:    lat,
			Longitude:   lon,
			ElevationFt: elev,
		}
	}

	if len(store.byICAO) == 0 {
		return nil, fmt.Errorf("no usable airport records in %s", path)
	}

	store.logger.Info("Airport database loaded",
		logger.Int("airports", len(store.byICAO)),
		logger.Int("skipped_rows", skipped),
		logger.String("path", path))

	return store, nil
}

// NewStore builds a store from in-memory records (used in tests and by
// callers that bulk-load from elsewhere)
func NewStore(airports []Airport, log *logger.Logger) *Store {
	byICAO := make(map[string]Airport, len(airports))
	for _, a := range airports {
		byICAO[strings.ToUpper(a.ICAO)] = a
	}
	return &Store{byICAO: byICAO, logger: log.Named("airports")}
}

// Coordinates returns the latitude/longitude for an ICAO code.
// Unknown codes fail explicitly; route endpoints must never be defaulted.
func (s *Store) Coordinates(icao string) (lat, lon float64, err error) {
	a, ok := s.byICAO[strings.ToUpper(icao)]
	if !ok {
		return 0, 0, &UnknownAirportError{Codes: []string{strings.ToUpper(icao)}}
	}
	return a.Latitude, a.Longitude, nil
}

// Info returns the full reference record for an ICAO code
func (s *Store) Info(icao string) (Airport, error) {
	a, ok := s.byICAO[strings.ToUpper(icao)]
	if !ok {
		return Airport{}, &UnknownAirportError{Codes: []string{strings.ToUpper(icao)}}
	}
	return a, nil
}

// Resolve checks every code and reports all unknown ones in a single error
func (s *Store) Resolve(codes []string) ([]Airport, error) {
	resolved := make([]Airport, 0, len(codes))
	var missing []string
	for _, code := range codes {
		a, ok := s.byICAO[strings.ToUpper(code)]
		if !ok {
			missing = append(missing, strings.ToUpper(code))
			continue
		}
		resolved = append(resolved, a)
	}
	if len(missing) > 0 {
		return nil, &UnknownAirportError{Codes: missing}
	}
	return resolved, nil
}

// Nearest returns the airport closest to the given position and its
// great-circle distance in kilometers. ok is false for an empty store.
func (s *Store) Nearest(lat, lon float64) (airport Airport, distanceKm float64, ok bool) {
	best := -1.0
	for _, a := range s.byICAO {
		d := geo.DistanceKm(lat, lon, a.Latitude, a.Longitude)
		if best < 0 || d < best {
			best = d
			airport = a
			ok = true
		}
	}
	return airport, best, ok
}

// Len returns the number of loaded airports
func (s *Store) Len() int {
	return len(s.byICAO)
}
