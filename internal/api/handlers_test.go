package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utkarshhzz/AviFlux/internal/airports"
	"github.com/utkarshhzz/AviFlux/internal/config"
	"github.com/utkarshhzz/AviFlux/internal/monitor"
	"github.com/utkarshhzz/AviFlux/internal/predict"
	"github.com/utkarshhzz/AviFlux/internal/routewx"
	"github.com/utkarshhzz/AviFlux/internal/websocket"
	"github.com/utkarshhzz/AviFlux/internal/wx"
	"github.com/utkarshhzz/AviFlux/pkg/logger"
)

// metarOnlyClient serves a fixed METAR and fails every other source
type metarOnlyClient struct{}

func (metarOnlyClient) FetchMETAR(ctx context.Context, airportCode string) (*wx.METARResponse, error) {
	temp, dewp, wspd, altim := 12.0, 7.0, 9.0, 29.92
	return &wx.METARResponse{
		ICAOID: airportCode,
		RawOb:  airportCode + " 251651Z 27009KT 10SM FEW250 12/07 A2992",
		Temp:   &temp,
		Dewp:   &dewp,
		Wdir:   270.0,
		Wspd:   &wspd,
		Visib:  "10+",
		Altim:  &altim,
	}, nil
}

func (metarOnlyClient) FetchTAF(ctx context.Context, airportCode string) (*wx.TAFResponse, error) {
	return nil, errors.New("taf unavailable")
}

func (metarOnlyClient) FetchPIREPs(ctx context.Context, lat, lon float64) ([]wx.PIREPResponse, error) {
	return nil, errors.New("pirep unavailable")
}

func (metarOnlyClient) FetchAdvisories(ctx context.Context) ([]wx.AirSigmetResponse, error) {
	return nil, errors.New("advisories unavailable")
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logger.NewNop()

	cfg := config.Default()
	cfg.Route.SamplePoints = 3
	cfg.Route.MaxAirportDistanceKm = 5000
	cfg.Route.Workers = 2
	cfg.Route.FetchesPerSecond = 1000
	cfg.Route.PointsPerLeg = 10

	store := airports.NewStore([]airports.Airport{
		{ICAO: "KJFK", Name: "John F Kennedy Intl", Latitude: 40.6413, Longitude: -73.7781, ElevationFt: 13},
		{ICAO: "KLAX", Name: "Los Angeles Intl", Latitude: 33.9425, Longitude: -118.4081, ElevationFt: 125},
	}, log)

	synth := wx.NewSynthesizer(0, rand.New(rand.NewSource(1)))
	aggregator := wx.NewAggregator(metarOnlyClient{}, store, synth, nil, log)
	analyzer := routewx.NewAnalyzer(aggregator, store, cfg.Route, log)
	predictor := predict.NewAdapter(nil, log)

	monitorService := monitor.NewService(aggregator, store, cfg.Monitor, nil, log)
	t.Cleanup(monitorService.Stop)

	handler := NewHandler(aggregator, store, analyzer, predictor, nil, monitorService, cfg, log)
	return NewRouter(handler, websocket.NewServer(log), log).Routes()
}

func doRequest(t *testing.T, router http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetHealth(t *testing.T) {
	rec := doRequest(t, newTestRouter(t), http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 2, body["airports"])
}

func TestGetWeather(t *testing.T) {
	rec := doRequest(t, newTestRouter(t), http.MethodGet, "/api/v1/weather/kjfk", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap wx.WeatherSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "KJFK", snap.Airport)
	assert.InDelta(t, 12.0, snap.TemperatureC, 1e-9)
	assert.InDelta(t, 9.0, snap.WindSpeedKt, 1e-9)
	assert.Contains(t, snap.Sources, wx.SourceMETAR)
	assert.InDelta(t, 0.4, snap.DataQuality, 1e-9)
}

func TestGetWeatherUnknownAirport(t *testing.T) {
	rec := doRequest(t, newTestRouter(t), http.MethodGet, "/api/v1/weather/ZZZZ", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "ZZZZ")
}

func TestGetRoute(t *testing.T) {
	rec := doRequest(t, newTestRouter(t), http.MethodGet, "/api/v1/route?waypoints=KJFK,KLAX", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Route struct {
			TotalDistanceNM float64 `json:"total_distance_nm"`
		} `json:"route"`
		Analysis routewx.Analysis `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.InEpsilon(t, 2144, body.Route.TotalDistanceNM, 0.02)
	assert.Len(t, body.Analysis.Points, 3)
	assert.NotEmpty(t, body.Analysis.OverallConditions)
}

func TestGetRouteTooFewWaypoints(t *testing.T) {
	rec := doRequest(t, newTestRouter(t), http.MethodGet, "/api/v1/route?waypoints=KJFK", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBriefing(t *testing.T) {
	rec := doRequest(t, newTestRouter(t), http.MethodGet, "/api/v1/briefing?from=KJFK&to=KLAX", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body briefingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "KJFK", body.Departure.Airport)
	assert.Equal(t, "KLAX", body.Arrival.Airport)
	assert.NotEmpty(t, body.Assessment.Classification)
	assert.NotEmpty(t, body.Assessment.Recommendation)
	assert.NotEmpty(t, body.Predictions.Confidence)
}

func TestGetBriefingMissingParams(t *testing.T) {
	rec := doRequest(t, newTestRouter(t), http.MethodGet, "/api/v1/briefing?from=KJFK", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrackFlightLifecycle(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/monitor/flights",
		`{"departure":"kjfk","arrival":"klax"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var flight monitor.Flight
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flight))
	assert.NotEmpty(t, flight.ID)
	assert.Equal(t, "KJFK", flight.Departure)
	assert.Equal(t, monitor.StatusMonitoring, flight.Status)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/monitor/flights", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var flights []monitor.Flight
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flights))
	require.Len(t, flights, 1)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/monitor/flights/"+flight.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/monitor/flights/unknown-id", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrackFlightBadRequests(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/monitor/flights", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/v1/monitor/flights",
		`{"departure":"","arrival":"KLAX"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/v1/monitor/flights",
		`{"departure":"ZZZZ","arrival":"KLAX"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSplitCodes(t *testing.T) {
	assert.Equal(t, []string{"KJFK", "KORD", "KLAX"}, splitCodes("kjfk, KORD ,klax"))
	assert.Empty(t, splitCodes(""))
	assert.Equal(t, []string{"KJFK"}, splitCodes("KJFK,,"))
}
