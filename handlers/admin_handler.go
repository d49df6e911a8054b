// handlers/admin_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gewnthar/flightlog/logger"
	"github.com/gewnthar/flightlog/models"
)

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Marshalling JSON response", logger.Error(err))
		http.Error(w, `{"error":"Failed to marshal JSON response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.logger.Warn("API error", logger.Int("status", code), logger.String("message", message))
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

// Refresh re-runs the pipeline.
// POST /api/admin/refresh[?force=true] where force re-downloads the master table.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			h.respondWithError(w, http.StatusBadRequest, "Invalid 'force' parameter, use true or false")
			return
		}
		force = b
	}

	snap, err := h.flights.Refresh(r.Context(), force)
	if err != nil {
		var fetchErr *models.FetchError
		if errors.As(err, &fetchErr) {
			h.respondWithError(w, http.StatusBadGateway, "Master airport download failed: "+err.Error())
			return
		}
		h.respondWithError(w, http.StatusInternalServerError, "Refresh failed: "+err.Error())
		return
	}

	h.respondWithJSON(w, http.StatusOK, models.RefreshResponse{
		Message:         "Flight data refreshed.",
		GeneratedAt:     snap.GeneratedAt,
		FlightCount:     len(snap.Flights),
		MissingAirports: nonNil(snap.MissingAirports),
		AddedAirports:   nonNil(snap.AddedAirports),
	})
}

// Sources lists master download provenance and recent autofill runs.
// GET /api/admin/sources
func (h *Handler) Sources(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.respondWithError(w, http.StatusNotFound, "Provenance store is disabled")
		return
	}
	versions, err := h.store.GetDataSourceVersions(r.Context())
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	runs, err := h.store.GetAutofillRuns(r.Context(), 20)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if versions == nil {
		versions = []models.DataSourceVersion{}
	}
	if runs == nil {
		runs = []models.AutofillRun{}
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"sources":       versions,
		"autofill_runs": runs,
	})
}

func nonNil(codes []string) []string {
	if codes == nil {
		return []string{}
	}
	return codes
}
