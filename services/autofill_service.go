// services/autofill_service.go
package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gewnthar/flightlog/logger"
	"github.com/gewnthar/flightlog/models"
	"github.com/gewnthar/flightlog/registry"
	"github.com/gewnthar/flightlog/utils"
)

// TimezoneResolver maps coordinates to IANA zones. *timezone.Locator satisfies it.
type TimezoneResolver interface {
	TimezoneAt(lat, lng float64) string
	ClosestTimezoneAt(lat, lng float64) string
}

// AutofillRecorder persists a summary of each reconciliation that had work to do.
type AutofillRecorder interface {
	RecordAutofillRun(ctx context.Context, run models.AutofillRun) error
}

// ReconcileResult lists the codes the flight log needed, the ones backfilled,
// and the ones the master table could not supply.
type ReconcileResult struct {
	Missing    []string
	Added      []string
	Unresolved []string
}

// AutofillService backfills the registry from the master table.
type AutofillService struct {
	zones    TimezoneResolver
	recorder AutofillRecorder
	logger   *logger.Logger
}

// NewAutofillService builds the reconciler. recorder may be nil.
func NewAutofillService(zones TimezoneResolver, recorder AutofillRecorder, log *logger.Logger) *AutofillService {
	return &AutofillService{
		zones:    zones,
		recorder: recorder,
		logger:   log.Named("autofill"),
	}
}

// ReferencedCodes returns the distinct, sorted airport codes of the flight log.
// Anything that is not three letters is ignored.
func ReferencedCodes(flights []models.Flight) []string {
	seen := make(map[string]bool)
	var codes []string
	for _, f := range flights {
		for _, raw := range [2]string{f.From, f.To} {
			code := utils.NormalizeAirportCode(raw)
			if !utils.IsIATACode(code) || seen[code] {
				continue
			}
			seen[code] = true
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

// MissingCodes returns the referenced codes the registry does not know.
func MissingCodes(flights []models.Flight, reg *registry.Registry) []string {
	var missing []string
	for _, code := range ReferencedCodes(flights) {
		if !reg.Has(code) {
			missing = append(missing, code)
		}
	}
	return missing
}

// Reconcile adds master rows for codes the flight log references but the
// registry lacks, inferring each time zone from coordinates, and saves the
// registry when anything was added. Existing entries are never touched, so a
// second run with the same flights is a no-op.
func (s *AutofillService) Reconcile(ctx context.Context, flights []models.Flight, reg *registry.Registry, master []models.MasterAirport) (ReconcileResult, error) {
	missing := MissingCodes(flights, reg)
	if len(missing) == 0 {
		s.logger.Info("No missing airports")
		return ReconcileResult{}, nil
	}
	s.logger.Info("Missing airports",
		logger.Int("count", len(missing)),
		logger.Strings("codes", missing))

	result := ReconcileResult{Missing: missing}

	candidates := s.candidates(missing, master)
	if len(candidates) == 0 {
		s.logger.Warn("No valid master data found for missing airports", logger.Strings("codes", missing))
		result.Unresolved = missing
		s.record(ctx, result)
		return result, nil
	}

	result.Added = reg.Merge(candidates)
	if len(result.Added) > 0 {
		if err := reg.Save(); err != nil {
			return result, fmt.Errorf("failed to persist airport registry: %w", err)
		}
	}

	added := make(map[string]bool, len(result.Added))
	for _, code := range result.Added {
		added[code] = true
	}
	for _, code := range missing {
		if !added[code] {
			result.Unresolved = append(result.Unresolved, code)
		}
	}

	s.logger.Info("Added airports with inferred time zones",
		logger.Int("count", len(result.Added)),
		logger.Strings("codes", result.Added),
		logger.String("path", reg.Path()))
	if len(result.Unresolved) > 0 {
		s.logger.Warn("Airports still unresolved", logger.Strings("codes", result.Unresolved))
	}
	s.record(ctx, result)
	return result, nil
}

// candidates picks the first master row with coordinates for each missing
// code, in missing order, and resolves its time zone.
func (s *AutofillService) candidates(missing []string, master []models.MasterAirport) []models.Airport {
	wanted := make(map[string]bool, len(missing))
	for _, code := range missing {
		wanted[code] = true
	}

	rows := make(map[string]models.MasterAirport)
	for _, m := range master {
		code := utils.NormalizeAirportCode(m.IATACode)
		if !utils.IsIATACode(code) || !wanted[code] || !finiteCoordinates(m) {
			continue
		}
		if _, dup := rows[code]; !dup {
			rows[code] = m
		}
	}

	var out []models.Airport
	for _, code := range missing {
		m, ok := rows[code]
		if !ok {
			continue
		}
		lat, lng := *m.Latitude, *m.Longitude
		zone := s.zones.TimezoneAt(lat, lng)
		if zone == "" {
			zone = s.zones.ClosestTimezoneAt(lat, lng)
			s.logger.Debug("Used closest time zone",
				logger.String("code", code), logger.String("time_zone", zone))
		}
		if zone == "" {
			s.logger.Warn("No time zone for airport", logger.String("code", code))
		}
		out = append(out, models.Airport{
			IATACode:     code,
			Latitude:     m.Latitude,
			Longitude:    m.Longitude,
			TimeZone:     zone,
			Municipality: m.Municipality,
			Country:      m.Country,
		})
	}
	return out
}

// finiteCoordinates rejects blank cells and the inf/NaN values a float parser accepts.
func finiteCoordinates(m models.MasterAirport) bool {
	if m.Latitude == nil || m.Longitude == nil {
		return false
	}
	for _, v := range []float64{*m.Latitude, *m.Longitude} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s *AutofillService) record(ctx context.Context, result ReconcileResult) {
	if s.recorder == nil {
		return
	}
	run := models.AutofillRun{
		RunID:      uuid.NewString(),
		RanAt:      time.Now().UTC(),
		Missing:    result.Missing,
		Added:      result.Added,
		Unresolved: result.Unresolved,
	}
	if err := s.recorder.RecordAutofillRun(ctx, run); err != nil {
		s.logger.Warn("Failed to record autofill run", logger.Error(err))
	}
}
