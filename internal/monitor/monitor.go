package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utkarshhzz/AviFlux/internal/airports"
	"github.com/utkarshhzz/AviFlux/internal/config"
	"github.com/utkarshhzz/AviFlux/internal/geo"
	"github.com/utkarshhzz/AviFlux/internal/metrics"
	"github.com/utkarshhzz/AviFlux/internal/routewx"
	"github.com/utkarshhzz/AviFlux/internal/wx"
	"github.com/utkarshhzz/AviFlux/pkg/logger"
)

// Flight status values
const (
	StatusMonitoring = "MONITORING"
	StatusCompleted  = "COMPLETED"
)

// Alert severity values
const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
)

// Alert is one raised in-flight condition. Alerts are append-only for the
// flight's lifetime; nothing deduplicates or clears them.
type Alert struct {
	ID       string    `json:"id"`
	FlightID string    `json:"flight_id"`
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
	Airport  string    `json:"airport"`
	RaisedAt time.Time `json:"raised_at"`
}

// Flight is one tracked flight with its estimated progress
type Flight struct {
	ID          string        `json:"id"`
	Departure   string        `json:"departure"`
	Arrival     string        `json:"arrival"`
	Status      string        `json:"status"`
	DepartedAt  time.Time     `json:"departed_at"`
	PlannedTime time.Duration `json:"planned_time"`
	Route       geo.Route     `json:"route"`
	Position    [2]float64    `json:"position"`
	Progress    float64       `json:"progress"`
	Alerts      []Alert       `json:"alerts"`
}

// Broadcaster pushes alerts to connected listeners
type Broadcaster interface {
	BroadcastAlert(alert Alert)
}

// Service tracks in-progress flights, polling weather along each route on
// a fixed interval. Each flight runs its own goroutine; completion is
// observed at the next poll, never forced mid-computation.
type Service struct {
	provider    routewx.SnapshotProvider
	airports    *airports.Store
	config      config.MonitorConfig
	broadcaster Broadcaster
	logger      *logger.Logger

	mu      sync.RWMutex
	flights map[string]*Flight

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a flight monitoring service. broadcaster may be nil.
func NewService(provider routewx.SnapshotProvider, store *airports.Store, cfg config.MonitorConfig, broadcaster Broadcaster, log *logger.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		provider:    provider,
		airports:    store,
		config:      cfg,
		broadcaster: broadcaster,
		logger:      log.Named("monitor"),
		flights:     make(map[string]*Flight),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Track registers a flight and starts its monitoring loop. The route must
// already be built from resolved airports.
func (s *Service) Track(departure, arrival string, route geo.Route, departedAt time.Time) *Flight {
	flight := &Flight{
		ID:          uuid.New().String(),
		Departure:   departure,
		Arrival:     arrival,
		Status:      StatusMonitoring,
		DepartedAt:  departedAt,
		PlannedTime: route.EstimatedTime,
		Route:       route,
	}
	flight.Position = [2]float64{}
	if len(route.Points) > 0 {
		flight.Position = [2]float64{route.Points[0].Latitude, route.Points[0].Longitude}
	}

	s.mu.Lock()
	s.flights[flight.ID] = flight
	registered := s.snapshotFlight(flight)
	s.mu.Unlock()

	s.wg.Add(1)
	go s.monitorFlight(flight.ID)

	s.logger.Info("Started monitoring flight",
		logger.String("flight_id", flight.ID),
		logger.String("departure", departure),
		logger.String("arrival", arrival),
		logger.Duration("planned_time", registered.PlannedTime))
	return registered
}

// Flight returns a copy of one tracked flight
func (s *Service) Flight(id string) (*Flight, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flights[id]
	if !ok {
		return nil, false
	}
	return s.snapshotFlight(f), true
}

// Flights returns copies of all tracked flights
func (s *Service) Flights() []*Flight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Flight, 0, len(s.flights))
	for _, f := range s.flights {
		out = append(out, s.snapshotFlight(f))
	}
	return out
}

// Stop signals every monitoring loop and waits for them to exit
func (s *Service) Stop() {
	s.cancel()
	s.wg.Wait()
	s.logger.Info("Flight monitoring stopped")
}

// snapshotFlight copies a flight under the caller's lock
func (s *Service) snapshotFlight(f *Flight) *Flight {
	cp := *f
	cp.Alerts = append([]Alert(nil), f.Alerts...)
	return &cp
}

// monitorFlight is the per-flight polling loop
func (s *Service) monitorFlight(flightID string) {
	defer s.wg.Done()

	interval := time.Duration(s.config.PollIntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First check immediately rather than waiting a full interval
	s.poll(flightID)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if done := s.poll(flightID); done {
				return
			}
		}
	}
}

// poll advances one flight: updates position, checks for completion, and
// evaluates alert rules at the nearest airport. Returns true once the
// flight leaves MONITORING.
func (s *Service) poll(flightID string) bool {
	s.mu.Lock()
	flight, ok := s.flights[flightID]
	if !ok || flight.Status != StatusMonitoring {
		s.mu.Unlock()
		return true
	}

	elapsed := time.Since(flight.DepartedAt)
	if flight.PlannedTime > 0 && elapsed > flight.PlannedTime {
		flight.Status = StatusCompleted
		flight.Progress = 1
		s.mu.Unlock()
		s.logger.Info("Flight completed",
			logger.String("flight_id", flight.ID),
			logger.String("departure", flight.Departure),
			logger.String("arrival", flight.Arrival))
		return true
	}

	fraction := 0.0
	if flight.PlannedTime > 0 {
		fraction = float64(elapsed) / float64(flight.PlannedTime)
	}
	lat, lon := flight.Route.PositionAtFraction(fraction)
	flight.Position = [2]float64{lat, lon}
	flight.Progress = fraction
	s.mu.Unlock()

	nearest, _, ok := s.airports.Nearest(lat, lon)
	if !ok {
		return false
	}

	ctx, cancel := context.WithTimeout(s.ctx, time.Minute)
	snap, err := s.provider.Snapshot(ctx, nearest.ICAO)
	cancel()
	if err != nil {
		s.logger.Warn("Monitoring weather lookup failed",
			logger.String("flight_id", flightID),
			logger.String("airport", nearest.ICAO),
			logger.Error(err))
		return false
	}

	for _, alert := range evaluateAlerts(flightID, snap, s.config.WindAlertKt) {
		s.appendAlert(flightID, alert)
	}
	return false
}

// evaluateAlerts applies the fixed alert rules to one snapshot
func evaluateAlerts(flightID string, snap wx.WeatherSnapshot, windLimitKt float64) []Alert {
	now := time.Now().UTC()
	var alerts []Alert

	if snap.FlightCategory == wx.CategoryLIFR {
		alerts = append(alerts, Alert{
			ID:       uuid.New().String(),
			FlightID: flightID,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("LIFR conditions at %s", snap.Airport),
			Airport:  snap.Airport,
			RaisedAt: now,
		})
	}

	if snap.WindSpeedKt > windLimitKt {
		alerts = append(alerts, Alert{
			ID:       uuid.New().String(),
			FlightID: flightID,
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("Winds %.0f kt at %s", snap.WindSpeedKt, snap.Airport),
			Airport:  snap.Airport,
			RaisedAt: now,
		})
	}

	for _, token := range snap.Phenomena {
		if strings.Contains(strings.ToUpper(token), "TS") {
			alerts = append(alerts, Alert{
				ID:       uuid.New().String(),
				FlightID: flightID,
				Severity: SeverityHigh,
				Message:  fmt.Sprintf("Thunderstorm activity (%s) at %s", token, snap.Airport),
				Airport:  snap.Airport,
				RaisedAt: now,
			})
			break
		}
	}
	return alerts
}

// appendAlert records an alert and pushes it to listeners
func (s *Service) appendAlert(flightID string, alert Alert) {
	s.mu.Lock()
	flight, ok := s.flights[flightID]
	if ok {
		flight.Alerts = append(flight.Alerts, alert)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	metrics.MonitorAlertsTotal.WithLabelValues(alert.Severity).Inc()
	s.logger.Warn("Flight alert raised",
		logger.String("flight_id", flightID),
		logger.String("severity", alert.Severity),
		logger.String("message", alert.Message))

	if s.broadcaster != nil {
		s.broadcaster.BroadcastAlert(alert)
	}
}
