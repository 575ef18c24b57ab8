package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/utkarshhzz/AviFlux/internal/wx"
	"github.com/utkarshhzz/AviFlux/pkg/logger"
)

// HistoricalAverages summarizes past observations for one airport
type HistoricalAverages struct {
	Airport        string  `json:"airport"`
	Observations   int     `json:"observations"`
	AvgTemperature float64 `json:"avg_temperature_celsius"`
	AvgWindSpeed   float64 `json:"avg_wind_speed_knots"`
	AvgVisibility  float64 `json:"avg_visibility_statute_miles"`
	AvgPressure    float64 `json:"avg_pressure_inhg"`
}

// HistoryStorage is a SQLite-based store of past weather observations,
// consumed by the prediction feature builder
type HistoryStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewHistoryStorage creates a new SQLite-based observation history store
func NewHistoryStorage(dbPath string, log *logger.Logger) (*HistoryStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite storage",
		logger.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := initDatabase(db, storageLogger); err != nil {
		db.Close()
		return nil, err
	}

	return &HistoryStorage{db: db, logger: storageLogger}, nil
}

// Close closes the database connection
func (s *HistoryStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// initDatabase initializes the database schema
func initDatabase(db *sql.DB, log *logger.Logger) error {
	log.Info("Initializing database schema")

	schema := `
	CREATE TABLE IF NOT EXISTS observations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		airport TEXT NOT NULL,
		observed_at TIMESTAMP NOT NULL,
		temperature_c REAL NOT NULL,
		dewpoint_c REAL NOT NULL,
		wind_speed_kt REAL NOT NULL,
		wind_dir_deg REAL NOT NULL,
		visibility_sm REAL NOT NULL,
		pressure_inhg REAL NOT NULL,
		flight_category TEXT NOT NULL,
		phenomena TEXT NOT NULL DEFAULT '',
		data_quality REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_observations_airport_time
		ON observations(airport, observed_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create observations table: %w", err)
	}
	return nil
}

// RecordSnapshot appends one merged observation to the history
func (s *HistoryStorage) RecordSnapshot(ctx context.Context, snap wx.WeatherSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO observations (
			airport, observed_at, temperature_c, dewpoint_c,
			wind_speed_kt, wind_dir_deg, visibility_sm, pressure_inhg,
			flight_category, phenomena, data_quality
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.Airport, snap.ObservedAt.UTC(), snap.TemperatureC, snap.DewpointC,
		snap.WindSpeedKt, snap.WindDirDeg, snap.VisibilitySM, snap.PressureInHg,
		string(snap.FlightCategory), strings.Join(snap.Phenomena, " "), snap.DataQuality)
	if err != nil {
		return fmt.Errorf("failed to insert observation: %w", err)
	}
	return nil
}

// Averages returns historical averages for an airport over the lookback
// window. A window of zero means all recorded history.
func (s *HistoryStorage) Averages(ctx context.Context, airport string, lookback time.Duration) (HistoricalAverages, error) {
	query := `
		SELECT COUNT(*),
			COALESCE(AVG(temperature_c), 0),
			COALESCE(AVG(wind_speed_kt), 0),
			COALESCE(AVG(visibility_sm), 0),
			COALESCE(AVG(pressure_inhg), 0)
		FROM observations WHERE airport = ?`
	args := []any{airport}
	if lookback > 0 {
		query += " AND observed_at >= ?"
		args = append(args, time.Now().UTC().Add(-lookback))
	}

	avg := HistoricalAverages{Airport: airport}
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&avg.Observations, &avg.AvgTemperature, &avg.AvgWindSpeed,
		&avg.AvgVisibility, &avg.AvgPressure)
	if err != nil {
		return HistoricalAverages{}, fmt.Errorf("failed to query averages: %w", err)
	}
	return avg, nil
}

// LastPressure returns the most recent recorded pressure for an airport,
// used for pressure-tendency features. ok is false with no history.
func (s *HistoryStorage) LastPressure(ctx context.Context, airport string) (pressure float64, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT pressure_inhg FROM observations
		WHERE airport = ? ORDER BY observed_at DESC LIMIT 1`, airport).Scan(&pressure)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query last pressure: %w", err)
	}
	return pressure, true, nil
}

// Prune deletes observations older than the retention window
func (s *HistoryStorage) Prune(ctx context.Context, retain time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM observations WHERE observed_at < ?`,
		time.Now().UTC().Add(-retain))
	if err != nil {
		return 0, fmt.Errorf("failed to prune observations: %w", err)
	}
	deleted, _ := res.RowsAffected()
	if deleted > 0 {
		s.logger.Info("Pruned old observations", logger.Int64("deleted", deleted))
	}
	return deleted, nil
}
