// services/data_update_service.go
package services

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/gewnthar/flightlog/logger"
	"github.com/gewnthar/flightlog/models"
	"github.com/gewnthar/flightlog/registry"
	"github.com/gewnthar/flightlog/scraper"
)

// MasterSource supplies the master airport table. *scraper.MasterFetcher satisfies it.
type MasterSource interface {
	EnsureMaster(ctx context.Context, cachePath, sourceURL string, force bool) ([]models.MasterAirport, error)
}

// Paths locates the files one run reads and writes.
type Paths struct {
	Flights     string
	Airports    string
	MasterCache string
	MasterURL   string
}

// FlightService runs the load, autofill and duration pipeline and keeps the
// latest result for readers. Runs are serialized; the registry file is only
// safe against a single process.
type FlightService struct {
	paths        Paths
	fetchTimeout time.Duration
	master       MasterSource
	autofill     *AutofillService
	logger       *logger.Logger

	runMu    sync.Mutex
	mu       sync.RWMutex
	snapshot *models.Snapshot
}

// NewFlightService wires the pipeline. fetchTimeout of zero leaves the master
// download bounded only by ctx.
func NewFlightService(paths Paths, fetchTimeout time.Duration, master MasterSource, autofill *AutofillService, log *logger.Logger) *FlightService {
	return &FlightService{
		paths:        paths,
		fetchTimeout: fetchTimeout,
		master:       master,
		autofill:     autofill,
		logger:       log.Named("flights"),
	}
}

// LoadFlights reads the flight log. Any structural problem is a *models.LoadError.
func LoadFlights(path string) ([]models.Flight, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &models.LoadError{Kind: "flights", Path: path, Err: err}
	}
	defer file.Close()

	flights, err := scraper.ParseFlightsCsv(file)
	if err != nil {
		return nil, &models.LoadError{Kind: "flights", Path: path, Err: err}
	}
	return flights, nil
}

// Refresh runs the whole pipeline once. The master table is consulted only
// when the log references unknown airports, or when forceMaster asks for a
// fresh download.
func (s *FlightService) Refresh(ctx context.Context, forceMaster bool) (*models.Snapshot, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()

	flights, err := LoadFlights(s.paths.Flights)
	if err != nil {
		return nil, err
	}
	reg, err := registry.Load(s.paths.Airports, s.logger)
	if err != nil {
		return nil, err
	}

	var added []string
	if forceMaster || len(MissingCodes(flights, reg)) > 0 {
		master, err := s.ensureMaster(ctx, forceMaster)
		if err != nil {
			return nil, err
		}
		result, err := s.autofill.Reconcile(ctx, flights, reg, master)
		if err != nil {
			return nil, err
		}
		added = result.Added
	}

	enriched := ComputeDurations(flights, reg)

	snapshot := &models.Snapshot{
		GeneratedAt:     time.Now().UTC(),
		Flights:         enriched,
		MissingAirports: MissingCodes(flights, reg),
		AddedAirports:   added,
	}

	unresolvedLegs := 0
	for _, f := range enriched {
		if len(f.Issues) > 0 {
			unresolvedLegs++
		}
	}
	if len(snapshot.MissingAirports) > 0 {
		s.logger.Warn("Flight log references unknown airports",
			logger.Int("count", len(snapshot.MissingAirports)),
			logger.Strings("codes", snapshot.MissingAirports))
	}
	s.logger.Info("Flights enriched",
		logger.Int("legs", len(enriched)),
		logger.Int("legs_with_issues", unresolvedLegs),
		logger.Duration("took", time.Since(start)))

	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()
	return snapshot, nil
}

// Snapshot returns the latest result, or nil before the first Refresh.
func (s *FlightService) Snapshot() *models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *FlightService) ensureMaster(ctx context.Context, force bool) ([]models.MasterAirport, error) {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}
	return s.master.EnsureMaster(ctx, s.paths.MasterCache, s.paths.MasterURL, force)
}
