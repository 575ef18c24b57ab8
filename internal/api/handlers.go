package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utkarshhzz/AviFlux/internal/airports"
	"github.com/utkarshhzz/AviFlux/internal/config"
	"github.com/utkarshhzz/AviFlux/internal/geo"
	"github.com/utkarshhzz/AviFlux/internal/monitor"
	"github.com/utkarshhzz/AviFlux/internal/predict"
	"github.com/utkarshhzz/AviFlux/internal/risk"
	"github.com/utkarshhzz/AviFlux/internal/routewx"
	"github.com/utkarshhzz/AviFlux/internal/storage/sqlite"
	"github.com/utkarshhzz/AviFlux/internal/wx"
	"github.com/utkarshhzz/AviFlux/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	aggregator *wx.Aggregator
	airports   *airports.Store
	analyzer   *routewx.Analyzer
	predictor  *predict.Adapter
	history    *sqlite.HistoryStorage
	monitor    *monitor.Service
	config     *config.Config
	logger     *logger.Logger
}

// NewHandler creates a new API handler. history may be nil.
func NewHandler(aggregator *wx.Aggregator, store *airports.Store, analyzer *routewx.Analyzer, predictor *predict.Adapter, history *sqlite.HistoryStorage, monitorService *monitor.Service, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		aggregator: aggregator,
		airports:   store,
		analyzer:   analyzer,
		predictor:  predictor,
		history:    history,
		monitor:    monitorService,
		config:     cfg,
		logger:     log.Named("api-handler"),
	}
}

// GetHealth reports process liveness
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"airports": h.airports.Len(),
		"time":     time.Now().UTC(),
	})
}

// GetWeather returns the merged weather snapshot for one airport
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	icao := strings.ToUpper(chi.URLParam(r, "icao"))

	snap, err := h.aggregator.Snapshot(r.Context(), icao)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, snap)
}

// routeResponse pairs a computed route with its weather analysis
type routeResponse struct {
	Route    geo.Route        `json:"route"`
	Analysis routewx.Analysis `json:"analysis"`
}

// GetRoute computes a multi-leg route and its route-level weather analysis.
// Waypoints come as a comma-separated ICAO list: ?waypoints=KJFK,KORD,KLAX
func (h *Handler) GetRoute(w http.ResponseWriter, r *http.Request) {
	codes := splitCodes(r.URL.Query().Get("waypoints"))
	if len(codes) < 2 {
		h.respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "waypoints query parameter must list at least two ICAO codes",
		})
		return
	}

	route, analysis, err := h.buildRouteWithWeather(r.Context(), codes)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, routeResponse{Route: route, Analysis: analysis})
}

// briefingResponse is the complete departure-to-arrival assessment
type briefingResponse struct {
	Departure   wx.WeatherSnapshot `json:"departure_conditions"`
	Arrival     wx.WeatherSnapshot `json:"arrival_conditions"`
	Route       geo.Route          `json:"route"`
	Analysis    routewx.Analysis   `json:"route_analysis"`
	Predictions predict.Result     `json:"predictions"`
	Assessment  risk.Assessment    `json:"risk_assessment"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// GetBriefing runs the full pipeline: weather for both ends, route
// analysis, predictions, and the final risk score
func (h *Handler) GetBriefing(w http.ResponseWriter, r *http.Request) {
	from := strings.ToUpper(r.URL.Query().Get("from"))
	to := strings.ToUpper(r.URL.Query().Get("to"))
	if from == "" || to == "" {
		h.respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "from and to query parameters are required",
		})
		return
	}

	ctx := r.Context()

	route, analysis, err := h.buildRouteWithWeather(ctx, []string{from, to})
	if err != nil {
		h.respondError(w, err)
		return
	}

	depSnap, err := h.aggregator.Snapshot(ctx, from)
	if err != nil {
		h.respondError(w, err)
		return
	}
	arrSnap, err := h.aggregator.Snapshot(ctx, to)
	if err != nil {
		h.respondError(w, err)
		return
	}

	depInfo, _ := h.airports.Info(from)
	predictions := h.predictor.Predict(predict.FeatureInput{
		Snapshot:    depSnap,
		ElevationFt: depInfo.ElevationFt,
		History:     h.historyFor(ctx, from, depSnap),
		Now:         time.Now(),
	})

	assessment := risk.Score(risk.Inputs{
		Departure:       depSnap,
		Arrival:         arrSnap,
		RouteConditions: analysis.OverallConditions,
		Predictions:     predictions.Values,
		WindLimitKt:     h.config.Risk.MaxWindSpeedKt,
		VisibilityMinSM: h.config.Risk.MinVisibilitySM,
	})

	h.respondJSON(w, http.StatusOK, briefingResponse{
		Departure:   depSnap,
		Arrival:     arrSnap,
		Route:       route,
		Analysis:    analysis,
		Predictions: predictions,
		Assessment:  assessment,
		GeneratedAt: time.Now().UTC(),
	})
}

// trackFlightRequest starts monitoring a flight
type trackFlightRequest struct {
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
}

// TrackFlight registers a flight for in-flight monitoring
func (h *Handler) TrackFlight(w http.ResponseWriter, r *http.Request) {
	var req trackFlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
		return
	}
	req.Departure = strings.ToUpper(strings.TrimSpace(req.Departure))
	req.Arrival = strings.ToUpper(strings.TrimSpace(req.Arrival))
	if req.Departure == "" || req.Arrival == "" {
		h.respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "departure and arrival are required",
		})
		return
	}

	route, err := h.buildRoute([]string{req.Departure, req.Arrival})
	if err != nil {
		h.respondError(w, err)
		return
	}

	flight := h.monitor.Track(req.Departure, req.Arrival, route, time.Now().UTC())
	h.respondJSON(w, http.StatusCreated, flight)
}

// GetFlights lists all tracked flights
func (h *Handler) GetFlights(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.monitor.Flights())
}

// GetFlight returns one tracked flight with its alert history
func (h *Handler) GetFlight(w http.ResponseWriter, r *http.Request) {
	flight, ok := h.monitor.Flight(chi.URLParam(r, "id"))
	if !ok {
		h.respondJSON(w, http.StatusNotFound, map[string]string{
			"error": "flight not found",
		})
		return
	}
	h.respondJSON(w, http.StatusOK, flight)
}

// buildRoute resolves waypoint codes and samples the route. Unknown codes
// fail here; route endpoints are never defaulted.
func (h *Handler) buildRoute(codes []string) (geo.Route, error) {
	resolved, err := h.airports.Resolve(codes)
	if err != nil {
		return geo.Route{}, err
	}

	endpoints := make([]geo.Endpoint, 0, len(resolved))
	for _, a := range resolved {
		endpoints = append(endpoints, geo.Endpoint{
			Code:      a.ICAO,
			Latitude:  a.Latitude,
			Longitude: a.Longitude,
		})
	}
	return geo.BuildRoute(endpoints, h.config.Route.PointsPerLeg, time.Now()), nil
}

func (h *Handler) buildRouteWithWeather(ctx context.Context, codes []string) (geo.Route, routewx.Analysis, error) {
	route, err := h.buildRoute(codes)
	if err != nil {
		return geo.Route{}, routewx.Analysis{}, err
	}

	first := route.Points[0]
	last := route.Points[len(route.Points)-1]
	analysis, err := h.analyzer.Analyze(ctx, first.Latitude, first.Longitude, last.Latitude, last.Longitude)
	if err != nil {
		return geo.Route{}, routewx.Analysis{}, err
	}
	return route, analysis, nil
}

// historyFor loads stored-observation features, tolerating an absent store
func (h *Handler) historyFor(ctx context.Context, icao string, snap wx.WeatherSnapshot) predict.Historical {
	if h.history == nil {
		return predict.Historical{}
	}

	avg, err := h.history.Averages(ctx, icao, 0)
	if err != nil || avg.Observations == 0 {
		return predict.Historical{}
	}
	hist := predict.Historical{
		AvgTemperatureC: avg.AvgTemperature,
		AvgWindSpeedKt:  avg.AvgWindSpeed,
		HasHistory:      true,
	}
	if last, ok, err := h.history.LastPressure(ctx, icao); err == nil && ok {
		hist.LastPressure = last
	}
	return hist
}

// respondError maps domain errors onto HTTP status codes
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var unknown *airports.UnknownAirportError
	if errors.As(err, &unknown) {
		h.respondJSON(w, http.StatusNotFound, map[string]any{
			"error": unknown.Error(),
			"codes": unknown.Codes,
		})
		return
	}

	h.logger.Error("Request failed", logger.Error(err))
	h.respondJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal error",
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

// splitCodes parses a comma-separated ICAO list, dropping empty entries
func splitCodes(raw string) []string {
	parts := strings.Split(raw, ",")
	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		if code := strings.ToUpper(strings.TrimSpace(p)); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}
