package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/utkarshhzz/AviFlux/internal/airports"
	"github.com/utkarshhzz/AviFlux/internal/api"
	"github.com/utkarshhzz/AviFlux/internal/config"
	"github.com/utkarshhzz/AviFlux/internal/monitor"
	"github.com/utkarshhzz/AviFlux/internal/predict"
	"github.com/utkarshhzz/AviFlux/internal/routewx"
	"github.com/utkarshhzz/AviFlux/internal/storage/sqlite"
	"github.com/utkarshhzz/AviFlux/internal/websocket"
	"github.com/utkarshhzz/AviFlux/internal/wx"
	"github.com/utkarshhzz/AviFlux/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting AviFlux server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
	)

	// Load airport reference data
	airportStore, err := airports.LoadCSV(cfg.Airports.DBPath, log)
	if err != nil {
		log.Error("Failed to load airport database", logger.Error(err))
		os.Exit(1)
	}

	// Create observation history storage
	dbDir := filepath.Dir(cfg.Storage.SQLitePath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		log.Error("Failed to create database directory", logger.Error(err), logger.String("path", dbDir))
		os.Exit(1)
	}
	historyStorage, err := sqlite.NewHistoryStorage(cfg.Storage.SQLitePath, log)
	if err != nil {
		log.Error("Failed to create SQLite storage", logger.Error(err))
		os.Exit(1)
	}
	defer historyStorage.Close()

	// Create weather pipeline
	wxClient := wx.NewClient(cfg.Weather, log)
	synthesizer := wx.NewSynthesizer(cfg.Weather.AdverseWeatherProbability,
		rand.New(rand.NewSource(time.Now().UnixNano())))
	aggregator := wx.NewAggregator(wxClient, airportStore, synthesizer, historyStorage, log)

	analyzer := routewx.NewAnalyzer(aggregator, airportStore, cfg.Route, log)

	// Predictors are registered at startup; an empty registry means every
	// prediction key is simply absent downstream.
	predictor := predict.NewAdapter(nil, log)

	// Create WebSocket server
	wsServer := websocket.NewServer(log)
	go wsServer.Run()

	// Create flight monitoring service
	monitorService := monitor.NewService(aggregator, airportStore, cfg.Monitor, wsServer, log)

	// Create API router
	handler := api.NewHandler(aggregator, airportStore, analyzer, predictor, historyStorage, monitorService, cfg, log)
	router := api.NewRouter(handler, wsServer, log)

	// --- Setup for multiple HTTP servers ---
	var servers []*http.Server
	allPorts := []int{cfg.Server.Port}
	if len(cfg.Server.AdditionalPorts) > 0 {
		allPorts = append(allPorts, cfg.Server.AdditionalPorts...)
	}

	log.Info("Configured listener ports", logger.Any("ports", allPorts))

	for _, port := range allPorts {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, port)
		server := &http.Server{
			Addr:         addr,
			Handler:      router.Routes(),
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
		}
		servers = append(servers, server)

		go func(s *http.Server) {
			log.Info("Starting HTTP server", logger.String("addr", s.Addr))
			if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("HTTP server error on startup", logger.String("addr", s.Addr), logger.Error(err))
			}
		}(server)
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	log.Info("Stopping flight monitoring...")
	monitorService.Stop()
	log.Info("Flight monitoring stopped.")

	// Shutdown all HTTP servers
	log.Info("Shutting down HTTP servers...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP server shutdown error", logger.String("addr", srv.Addr), logger.Error(err))
			} else {
				log.Info("HTTP server shutdown complete", logger.String("addr", srv.Addr))
			}
		}(s)
	}
	wg.Wait()

	log.Info("Server fully stopped")
}
