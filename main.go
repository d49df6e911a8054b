// main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gewnthar/flightlog/config"
	"github.com/gewnthar/flightlog/database"
	"github.com/gewnthar/flightlog/handlers"
	"github.com/gewnthar/flightlog/logger"
	"github.com/gewnthar/flightlog/models"
	"github.com/gewnthar/flightlog/scraper"
	"github.com/gewnthar/flightlog/services"
	"github.com/gewnthar/flightlog/timezone"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to config/config.yaml when present)")
	outPath := flag.String("out", "", "write the enriched flight table to this CSV file")
	serve := flag.Bool("serve", false, "serve the HTTP API after the first refresh")
	forceRefresh := flag.Bool("force-refresh", false, "re-download the master airport table")
	flag.Parse()

	if err := run(*configPath, *outPath, *serve, *forceRefresh); err != nil {
		fmt.Fprintf(os.Stderr, "flightlog: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, outPath string, serve, forceRefresh bool) error {
	if configPath == "" {
		if _, err := os.Stat("config/config.yaml"); err == nil {
			configPath = "config/config.yaml"
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting flightlog",
		logger.String("config", configPath),
		logger.String("flights", cfg.Data.Flights),
		logger.String("airports", cfg.Data.Airports),
		logger.String("db_driver", cfg.Database.Driver))

	// interface values stay nil when the store is disabled
	var (
		provenance scraper.ProvenanceRecorder
		runs       services.AutofillRecorder
		sources    handlers.ProvenanceSource
	)
	if cfg.Database.Enabled() {
		store, err := database.Open(cfg.Database, log)
		if err != nil {
			return fmt.Errorf("error initializing database: %w", err)
		}
		defer store.Close()
		provenance, runs, sources = store, store, store
	}

	zones, err := timezone.NewDefaultLocator()
	if err != nil {
		return fmt.Errorf("error loading timezone finder: %w", err)
	}

	fetcher := scraper.NewMasterFetcher(nil, provenance, log)
	autofill := services.NewAutofillService(zones, runs, log)
	flights := services.NewFlightService(services.Paths{
		Flights:     cfg.Data.Flights,
		Airports:    cfg.Data.Airports,
		MasterCache: cfg.Data.MasterCache,
		MasterURL:   cfg.Master.URL,
	}, cfg.Master.FetchTimeout, fetcher, autofill, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap, err := flights.Refresh(ctx, cfg.Master.ForceRefresh || forceRefresh)
	if err != nil {
		return err
	}
	log.Info("Flight log enriched",
		logger.Int("flights", len(snap.Flights)),
		logger.Strings("added_airports", snap.AddedAirports),
		logger.Strings("missing_airports", snap.MissingAirports))

	if outPath != "" {
		if err := writeEnriched(outPath, snap); err != nil {
			return err
		}
		log.Info("Wrote enriched flights", logger.String("path", outPath))
	}

	if !serve {
		return nil
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handlers.NewHandler(flights, sources, log).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info("Server starting", logger.String("addr", "http://localhost"+server.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("error starting server: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

func writeEnriched(path string, snap *models.Snapshot) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := scraper.WriteEnrichedFlightsCsv(file, snap.Flights); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}
