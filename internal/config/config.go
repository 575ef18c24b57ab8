package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server   ServerConfig   `toml:"server"`   // HTTP server settings
	Logging  LoggingConfig  `toml:"logging"`  // Application logging settings
	Airports AirportsConfig `toml:"airports"` // Airport reference data settings
	Weather  WeatherConfig  `toml:"wx"`       // Weather source fetching settings
	Risk     RiskConfig     `toml:"risk"`     // Risk scoring thresholds
	Route    RouteConfig    `toml:"route"`    // Route weather analysis settings
	Monitor  MonitorConfig  `toml:"monitor"`  // Real-time flight monitoring settings
	Storage  StorageConfig  `toml:"storage"`  // Observation history persistence settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port             int    `toml:"port"`                  // Primary HTTP port for the server
	Host             string `toml:"host"`                  // Host address to bind to
	ReadTimeoutSecs  int    `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request
	WriteTimeoutSecs int    `toml:"write_timeout_seconds"` // Maximum duration for writing the response
	IdleTimeoutSecs  int    `toml:"idle_timeout_seconds"`  // Keep-alive idle timeout
	AdditionalPorts  []int  `toml:"additional_ports"`      // Additional HTTP ports to listen on
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// AirportsConfig contains airport reference data configuration
type AirportsConfig struct {
	DBPath string `toml:"db_path"` // Path to airport database CSV file (OurAirports format)
}

// WeatherConfig contains weather source fetching configuration
type WeatherConfig struct {
	APIBaseURL                string  `toml:"api_base_url"`                // Base URL for aviationweather.gov data API
	RequestTimeoutSeconds     int     `toml:"request_timeout_seconds"`     // Per-source HTTP timeout in seconds
	MaxRetries                int     `toml:"max_retries"`                 // Retry attempts per source fetch
	PIREPRadiusDeg            float64 `toml:"pirep_radius_deg"`            // Half-width of the PIREP search bounding box in degrees
	AdvisoryLookbackHours     int     `toml:"advisory_lookback_hours"`     // How far back to request SIGMET/AIRMET data
	AdverseWeatherProbability float64 `toml:"adverse_weather_probability"` // Probability the synthetic fallback injects an adverse phenomenon
}

// RiskConfig contains operational limits for risk scoring
type RiskConfig struct {
	MaxWindSpeedKt  float64 `toml:"max_wind_speed_kt"` // Wind speed above which a wind factor triggers (FAA standard: 35)
	MinVisibilitySM float64 `toml:"min_visibility_sm"` // Visibility below which a visibility factor triggers (IFR minimum: 3)
	MaxCrosswindKt  float64 `toml:"max_crosswind_kt"`  // Typical aircraft crosswind limit
}

// RouteConfig contains route weather analysis configuration
type RouteConfig struct {
	SamplePoints         int     `toml:"sample_points"`           // Number of evenly spaced waypoints analyzed along a route
	WindShearDeltaKt     float64 `toml:"wind_shear_delta_kt"`     // Wind speed change between adjacent samples treated as shear
	MaxAirportDistanceKm float64 `toml:"max_airport_distance_km"` // Beyond this, a sample point is unserved and skipped
	Workers              int     `toml:"workers"`                 // Concurrent weather fetch workers for route fan-out
	FetchesPerSecond     float64 `toml:"fetches_per_second"`      // Upstream rate limit applied to the fan-out
	PointsPerLeg         int     `toml:"points_per_leg"`          // Sampled points per route leg, endpoints included
}

// MonitorConfig contains real-time flight monitoring configuration
type MonitorConfig struct {
	PollIntervalMinutes int     `toml:"poll_interval_minutes"` // How often each tracked flight is re-evaluated
	WindAlertKt         float64 `toml:"wind_alert_kt"`         // Wind speed that raises a MEDIUM alert
}

// StorageConfig contains observation history persistence configuration
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path"` // Path to the SQLite observation history database
}

// Default returns a configuration populated with working defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:             8080,
			Host:             "0.0.0.0",
			ReadTimeoutSecs:  30,
			WriteTimeoutSecs: 60,
			IdleTimeoutSecs:  120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Airports: AirportsConfig{
			DBPath: "airports.csv",
		},
		Weather: WeatherConfig{
			APIBaseURL:                "https://aviationweather.gov/api/data",
			RequestTimeoutSeconds:     20,
			MaxRetries:                2,
			PIREPRadiusDeg:            1.0,
			AdvisoryLookbackHours:     4,
			AdverseWeatherProbability: 0.18,
		},
		Risk: RiskConfig{
			MaxWindSpeedKt:  35,
			MinVisibilitySM: 3.0,
			MaxCrosswindKt:  25,
		},
		Route: RouteConfig{
			SamplePoints:         11,
			WindShearDeltaKt:     15,
			MaxAirportDistanceKm: 500,
			Workers:              6,
			FetchesPerSecond:     5,
			PointsPerLeg:         100,
		},
		Monitor: MonitorConfig{
			PollIntervalMinutes: 5,
			WindAlertKt:         40,
		},
		Storage: StorageConfig{
			SQLitePath: "data/wxhistory.db",
		},
	}
}

// Load reads the configuration from the given TOML file, applying
// defaults for any section left unset
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	config := Default()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,
		"configs/config.toml",
		"config.toml",
	}

	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging level must be one of: debug, info, warn, error")
	}

	if c.Airports.DBPath == "" {
		return fmt.Errorf("airports db_path is required")
	}

	if err := c.ValidateWeather(); err != nil {
		return err
	}
	if err := c.ValidateRoute(); err != nil {
		return err
	}
	if c.Monitor.PollIntervalMinutes <= 0 {
		return fmt.Errorf("monitor poll_interval_minutes must be greater than 0")
	}
	if c.Storage.SQLitePath == "" {
		return fmt.Errorf("storage sqlite_path is required")
	}

	return nil
}

// ValidateWeather validates the weather source configuration
func (c *Config) ValidateWeather() error {
	if c.Weather.APIBaseURL == "" {
		return fmt.Errorf("wx api_base_url cannot be empty")
	}
	if c.Weather.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("wx request_timeout_seconds must be greater than 0")
	}
	if c.Weather.MaxRetries < 0 {
		return fmt.Errorf("wx max_retries must be 0 or greater")
	}
	if c.Weather.AdverseWeatherProbability < 0 || c.Weather.AdverseWeatherProbability > 1 {
		return fmt.Errorf("wx adverse_weather_probability must be within [0,1]")
	}
	return nil
}

// ValidateRoute validates the route analysis configuration
func (c *Config) ValidateRoute() error {
	if c.Route.SamplePoints < 2 {
		return fmt.Errorf("route sample_points must be at least 2")
	}
	if c.Route.MaxAirportDistanceKm <= 0 {
		return fmt.Errorf("route max_airport_distance_km must be greater than 0")
	}
	if c.Route.Workers <= 0 {
		return fmt.Errorf("route workers must be greater than 0")
	}
	if c.Route.PointsPerLeg < 2 {
		return fmt.Errorf("route points_per_leg must be at least 2")
	}
	return nil
}
