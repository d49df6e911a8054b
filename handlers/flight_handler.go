// handlers/flight_handler.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gewnthar/flightlog/logger"
	"github.com/gewnthar/flightlog/models"
)

// FlightSource is the pipeline as seen by the API. *services.FlightService satisfies it.
type FlightSource interface {
	Refresh(ctx context.Context, forceMaster bool) (*models.Snapshot, error)
	Snapshot() *models.Snapshot
}

// ProvenanceSource is the read side of the provenance store. *database.Store satisfies it.
type ProvenanceSource interface {
	Ping(ctx context.Context) error
	GetDataSourceVersions(ctx context.Context) ([]models.DataSourceVersion, error)
	GetAutofillRuns(ctx context.Context, limit int) ([]models.AutofillRun, error)
}

// Handler serves the enriched flight table. store may be nil.
type Handler struct {
	flights FlightSource
	store   ProvenanceSource
	logger  *logger.Logger
}

func NewHandler(flights FlightSource, store ProvenanceSource, log *logger.Logger) *Handler {
	return &Handler{flights: flights, store: store, logger: log.Named("api")}
}

// Health reports liveness and, when configured, database reachability.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			h.respondWithError(w, http.StatusInternalServerError, "database connection error")
			return
		}
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"loaded": h.flights.Snapshot() != nil,
	})
}

// Flights returns the enriched legs.
// GET /api/flights[?renderable=true] drops legs missing coordinates at either end.
func (h *Handler) Flights(w http.ResponseWriter, r *http.Request) {
	snap := h.flights.Snapshot()
	if snap == nil {
		h.respondWithError(w, http.StatusServiceUnavailable, "Flight data not loaded yet")
		return
	}

	flights := snap.Flights
	if r.URL.Query().Get("renderable") == "true" {
		flights = make([]models.EnrichedFlight, 0, len(snap.Flights))
		for _, f := range snap.Flights {
			if f.Renderable() {
				flights = append(flights, f)
			}
		}
	}
	if flights == nil {
		flights = []models.EnrichedFlight{}
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"generated_at": snap.GeneratedAt,
		"count":        len(flights),
		"flights":      flights,
	})
}

// MissingAirports lists codes the flight log uses that no registry row covers.
// GET /api/airports/missing
func (h *Handler) MissingAirports(w http.ResponseWriter, r *http.Request) {
	snap := h.flights.Snapshot()
	if snap == nil {
		h.respondWithError(w, http.StatusServiceUnavailable, "Flight data not loaded yet")
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(snap.MissingAirports),
		"codes": nonNil(snap.MissingAirports),
	})
}
