package wx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/utkarshhzz/AviFlux/internal/config"
	"github.com/utkarshhzz/AviFlux/pkg/logger"
)

// Client handles HTTP requests to the aviationweather.gov data API
type Client struct {
	config     config.WeatherConfig
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a new weather API client
func NewClient(cfg config.WeatherConfig, log *logger.Logger) *Client {
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		logger: log.Named("wx-client"),
	}
}

// FetchMETAR fetches the latest METAR observation for an airport
func (c *Client) FetchMETAR(ctx context.Context, airportCode string) (*METARResponse, error) {
	url := fmt.Sprintf("%s/metar?ids=%s&format=json", c.config.APIBaseURL, airportCode)

	var result []METARResponse // API returns an array
	if err := c.fetchWithRetry(ctx, url, KindMETAR, airportCode, &result); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no METAR data found for %s", airportCode)
	}

	// First entry is the latest observation
	return &result[0], nil
}

// FetchTAF fetches the current TAF for an airport
func (c *Client) FetchTAF(ctx context.Context, airportCode string) (*TAFResponse, error) {
	url := fmt.Sprintf("%s/taf?ids=%s&format=json", c.config.APIBaseURL, airportCode)

	var result []TAFResponse
	if err := c.fetchWithRetry(ctx, url, KindTAF, airportCode, &result); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no TAF data found for %s", airportCode)
	}
	return &result[0], nil
}

// FetchPIREPs fetches pilot reports within a bounding box around a position.
// The box half-width comes from the configured PIREP radius in degrees.
func (c *Client) FetchPIREPs(ctx context.Context, lat, lon float64) ([]PIREPResponse, error) {
	r := c.config.PIREPRadiusDeg
	url := fmt.Sprintf("%s/pirep?format=json&bbox=%.2f,%.2f,%.2f,%.2f",
		c.config.APIBaseURL, lat-r, lon-r, lat+r, lon+r)

	var result []PIREPResponse
	if err := c.fetchWithRetry(ctx, url, KindPIREP, fmt.Sprintf("%.2f,%.2f", lat, lon), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// FetchAdvisories fetches AIRMETs/SIGMETs issued within the configured
// lookback window
func (c *Client) FetchAdvisories(ctx context.Context) ([]AirSigmetResponse, error) {
	url := fmt.Sprintf("%s/airsigmet?format=json&hazard=all&hours=%d",
		c.config.APIBaseURL, c.config.AdvisoryLookbackHours)

	var result []AirSigmetResponse
	if err := c.fetchWithRetry(ctx, url, KindSIGMET, "all", &result); err != nil {
		return nil, err
	}
	return result, nil
}

// fetchWithRetry performs an HTTP GET with exponential backoff between attempts
func (c *Client) fetchWithRetry(ctx context.Context, url string, kind SourceKind, subject string, target any) error {
	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 {
			c.logger.Info("Retrying weather data fetch",
				logger.String("kind", string(kind)),
				logger.String("subject", subject),
				logger.Int("attempt", attempt))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("building weather API request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("Weather API request failed, may retry",
				logger.String("kind", string(kind)),
				logger.String("subject", subject),
				logger.Error(err),
				logger.Int("attempt", attempt))
			return fmt.Errorf("requesting weather API: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			c.logger.Warn("Weather API returned non-OK status, may retry",
				logger.String("kind", string(kind)),
				logger.String("subject", subject),
				logger.Int("status_code", resp.StatusCode),
				logger.Int("attempt", attempt))
			return err
		}

		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			c.logger.Warn("Failed to decode weather data, may retry",
				logger.String("kind", string(kind)),
				logger.String("subject", subject),
				logger.Error(err),
				logger.Int("attempt", attempt))
			return fmt.Errorf("decoding weather data: %w", err)
		}
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 500 * time.Millisecond
	policy := backoff.WithContext(
		backoff.WithMaxRetries(expBackoff, uint64(c.config.MaxRetries)), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		c.logger.Error("All attempts to fetch weather data failed",
			logger.String("kind", string(kind)),
			logger.String("subject", subject),
			logger.Error(err),
			logger.Int("attempts", attempt))
		return err
	}

	if attempt > 1 {
		c.logger.Info("Successfully fetched weather data after retries",
			logger.String("kind", string(kind)),
			logger.String("subject", subject),
			logger.Int("attempts_needed", attempt))
	}
	return nil
}
