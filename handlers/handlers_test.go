package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gewnthar/flightlog/logger"
	"github.com/gewnthar/flightlog/models"
)

type flightsStub struct {
	snap   *models.Snapshot
	err    error
	forced []bool
}

func (f *flightsStub) Refresh(_ context.Context, force bool) (*models.Snapshot, error) {
	f.forced = append(f.forced, force)
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

func (f *flightsStub) Snapshot() *models.Snapshot { return f.snap }

type storeStub struct {
	pingErr error
}

func (s storeStub) Ping(context.Context) error { return s.pingErr }

func (s storeStub) GetDataSourceVersions(context.Context) ([]models.DataSourceVersion, error) {
	return []models.DataSourceVersion{{SourceName: "OURAIRPORTS_MASTER", RowCount: 3}}, nil
}

func (s storeStub) GetAutofillRuns(context.Context, int) ([]models.AutofillRun, error) {
	return nil, nil
}

func f64(v float64) *float64 { return &v }

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		GeneratedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Flights: []models.EnrichedFlight{
			{
				Flight:                models.Flight{TripName: "t", From: "SFO", To: "LHR", Delayed: true},
				FlightDurationMinutes: f64(615),
				FromLat:               f64(37.6), FromLon: f64(-122.4),
				ToLat: f64(51.5), ToLon: f64(-0.46),
			},
			{
				Flight: models.Flight{TripName: "t", From: "LHR", To: "QQQ"},
				Issues: []models.ResolutionFailure{{Field: "arrival", Code: "QQQ", Reason: models.ReasonUnknownAirport}},
			},
		},
		MissingAirports: []string{"QQQ"},
	}
}

func serve(h *Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestFlightsEndpoint(t *testing.T) {
	h := NewHandler(&flightsStub{snap: sampleSnapshot()}, nil, logger.Nop())

	rec := serve(h, http.MethodGet, "/api/flights")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count   int              `json:"count"`
		Flights []map[string]any `json:"flights"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, 615.0, body.Flights[0]["flight_duration_minutes"])
	assert.Equal(t, true, body.Flights[0]["delayed"])
	assert.Nil(t, body.Flights[1]["flight_duration_minutes"])
	assert.NotNil(t, body.Flights[1]["issues"])

	rec = serve(h, http.MethodGet, "/api/flights?renderable=true")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "SFO", body.Flights[0]["from"])
}

func TestFlightsEndpointBeforeFirstLoad(t *testing.T) {
	h := NewHandler(&flightsStub{}, nil, logger.Nop())
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, http.MethodGet, "/api/flights").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, http.MethodGet, "/api/airports/missing").Code)
}

func TestMissingAirportsEndpoint(t *testing.T) {
	h := NewHandler(&flightsStub{snap: sampleSnapshot()}, nil, logger.Nop())
	rec := serve(h, http.MethodGet, "/api/airports/missing")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":1,"codes":["QQQ"]}`, rec.Body.String())
}

func TestRefreshEndpoint(t *testing.T) {
	stub := &flightsStub{snap: sampleSnapshot()}
	h := NewHandler(stub, nil, logger.Nop())

	rec := serve(h, http.MethodPost, "/api/admin/refresh?force=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []bool{true}, stub.forced)

	var resp models.RefreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.FlightCount)
	assert.Equal(t, []string{"QQQ"}, resp.MissingAirports)
	assert.Equal(t, []string{}, resp.AddedAirports)

	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodPost, "/api/admin/refresh?force=perhaps").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodGet, "/api/admin/refresh").Code)
}

func TestRefreshEndpointErrors(t *testing.T) {
	stub := &flightsStub{err: &models.FetchError{URL: "u", Err: errors.New("offline")}}
	h := NewHandler(stub, nil, logger.Nop())
	assert.Equal(t, http.StatusBadGateway, serve(h, http.MethodPost, "/api/admin/refresh").Code)

	stub.err = &models.LoadError{Kind: "flights", Path: "p", Err: errors.New("bad")}
	assert.Equal(t, http.StatusInternalServerError, serve(h, http.MethodPost, "/api/admin/refresh").Code)
}

func TestHealthAndSources(t *testing.T) {
	h := NewHandler(&flightsStub{snap: sampleSnapshot()}, storeStub{}, logger.Nop())
	rec := serve(h, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","loaded":true}`, rec.Body.String())

	rec = serve(h, http.MethodGet, "/api/admin/sources")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"source_name":"OURAIRPORTS_MASTER"`)
	assert.Contains(t, rec.Body.String(), `"autofill_runs":[]`)

	down := NewHandler(&flightsStub{}, storeStub{pingErr: errors.New("gone")}, logger.Nop())
	assert.Equal(t, http.StatusInternalServerError, serve(down, http.MethodGet, "/api/health").Code)

	noStore := NewHandler(&flightsStub{}, nil, logger.Nop())
	assert.Equal(t, http.StatusNotFound, serve(noStore, http.MethodGet, "/api/admin/sources").Code)
}
