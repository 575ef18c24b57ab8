package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utkarshhzz/AviFlux/internal/websocket"
	"github.com/utkarshhzz/AviFlux/pkg/logger"
)

// Router wires the HTTP surface
type Router struct {
	handler  *Handler
	wsServer *websocket.Server
	logger   *logger.Logger
}

// NewRouter creates the API router
func NewRouter(handler *Handler, wsServer *websocket.Server, log *logger.Logger) *Router {
	return &Router{
		handler:  handler,
		wsServer: wsServer,
		logger:   log.Named("api-router"),
	}
}

// Routes builds the chi route tree
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(r.requestLogger)

	router.Route("/api/v1", func(api chi.Router) {
		api.Get("/health", r.handler.GetHealth)
		api.Get("/weather/{icao}", r.handler.GetWeather)
		api.Get("/route", r.handler.GetRoute)
		api.Get("/briefing", r.handler.GetBriefing)

		api.Route("/monitor", func(mon chi.Router) {
			mon.Post("/flights", r.handler.TrackFlight)
			mon.Get("/flights", r.handler.GetFlights)
			mon.Get("/flights/{id}", r.handler.GetFlight)
		})
	})

	router.Get("/ws", r.wsServer.HandleConnection)
	router.Handle("/metrics", promhttp.Handler())

	return router
}

// requestLogger logs each completed request through the structured logger
func (r *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		r.logger.Debug("Request completed",
			logger.String("method", req.Method),
			logger.String("path", req.URL.Path),
			logger.Int("status", ww.Status()),
			logger.Duration("duration", time.Since(start)))
	})
}
