package services

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gewnthar/flightlog/logger"
	"github.com/gewnthar/flightlog/models"
	"github.com/gewnthar/flightlog/registry"
)

// fakeZones answers from fixed tables keyed by latitude.
type fakeZones struct {
	exact   map[float64]string
	closest map[float64]string
}

func (z fakeZones) TimezoneAt(lat, _ float64) string        { return z.exact[lat] }
func (z fakeZones) ClosestTimezoneAt(lat, _ float64) string { return z.closest[lat] }

type runRecorder struct {
	runs []models.AutofillRun
}

func (r *runRecorder) RecordAutofillRun(_ context.Context, run models.AutofillRun) error {
	r.runs = append(r.runs, run)
	return nil
}

const curatedCSV = `iata_code,latitude_deg,longitude_deg,time_zone,municipality,country
SFO,37.619,-122.375,America/Los_Angeles,San Francisco,US
`

var testMaster = []models.MasterAirport{
	{IATACode: "NRT", Latitude: f64(35.764), Longitude: f64(140.386), Municipality: "Narita", Country: "JP"},
	{IATACode: "NRT", Latitude: f64(0), Longitude: f64(0), Municipality: "duplicate", Country: "ZZ"},
	{IATACode: "HKG", Latitude: f64(22.308), Longitude: f64(113.918), Municipality: "Hong Kong", Country: "HK"},
	{IATACode: "SFO", Latitude: f64(0), Longitude: f64(0), Municipality: "master SFO", Country: "ZZ"},
	{IATACode: "NOC", Latitude: nil, Longitude: f64(1), Municipality: "no coords", Country: "ZZ"},
	{IATACode: "", Latitude: f64(1), Longitude: f64(1)},
	{IATACode: "12", Latitude: f64(1), Longitude: f64(1)},
}

var testZones = fakeZones{
	exact:   map[float64]string{35.764: "Asia/Tokyo"},
	closest: map[float64]string{22.308: "Asia/Hong_Kong"},
}

func loadCurated(t *testing.T) *registry.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "airports.csv")
	require.NoError(t, os.WriteFile(path, []byte(curatedCSV), 0644))
	reg, err := registry.Load(path, logger.Nop())
	require.NoError(t, err)
	return reg
}

func TestReferencedCodesIgnoresMalformed(t *testing.T) {
	flights := []models.Flight{
		{From: "sfo", To: "NRT"},
		{From: "NR", To: "123"},
		{From: "", To: " hkg "},
		{From: "KJFK", To: "S F"},
		{From: "NRT", To: "SFO"},
	}
	assert.Equal(t, []string{"HKG", "NRT", "SFO"}, ReferencedCodes(flights))
}

func TestReconcileBackfillsMissingAirports(t *testing.T) {
	reg := loadCurated(t)
	rec := &runRecorder{}
	svc := NewAutofillService(testZones, rec, logger.Nop())

	flights := []models.Flight{
		{From: "SFO", To: "NRT"},
		{From: "NRT", To: "HKG"},
		{From: "HKG", To: "XX"},
	}
	result, err := svc.Reconcile(context.Background(), flights, reg, testMaster)
	require.NoError(t, err)
	assert.Equal(t, []string{"HKG", "NRT"}, result.Missing)
	assert.Equal(t, []string{"HKG", "NRT"}, result.Added)
	assert.Empty(t, result.Unresolved)

	nrt, ok := reg.Lookup("NRT")
	require.True(t, ok)
	assert.Equal(t, "Asia/Tokyo", nrt.TimeZone)
	assert.Equal(t, "Narita", nrt.Municipality)
	assert.Equal(t, "JP", nrt.Country)

	hkg, ok := reg.Lookup("HKG")
	require.True(t, ok)
	assert.Equal(t, "Asia/Hong_Kong", hkg.TimeZone, "closest-zone fallback")

	sfo, _ := reg.Lookup("SFO")
	assert.Equal(t, "San Francisco", sfo.Municipality, "curated entry wins")

	reloaded, err := registry.Load(reg.Path(), logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"HKG", "NRT", "SFO"}, reloaded.Codes())

	require.Len(t, rec.runs, 1)
	assert.NotEmpty(t, rec.runs[0].RunID)
	assert.Equal(t, []string{"HKG", "NRT"}, rec.runs[0].Added)
}

func TestReconcileIsIdempotent(t *testing.T) {
	reg := loadCurated(t)
	svc := NewAutofillService(testZones, nil, logger.Nop())
	flights := []models.Flight{{From: "SFO", To: "NRT"}, {From: "NRT", To: "QQQ"}}

	first, err := svc.Reconcile(context.Background(), flights, reg, testMaster)
	require.NoError(t, err)
	assert.Equal(t, []string{"NRT"}, first.Added)
	assert.Equal(t, []string{"QQQ"}, first.Unresolved)

	before, err := os.ReadFile(reg.Path())
	require.NoError(t, err)
	info, err := os.Stat(reg.Path())
	require.NoError(t, err)

	again, err := registry.Load(reg.Path(), logger.Nop())
	require.NoError(t, err)
	second, err := svc.Reconcile(context.Background(), flights, again, testMaster)
	require.NoError(t, err)
	assert.Empty(t, second.Added)
	assert.Equal(t, []string{"QQQ"}, second.Unresolved)

	after, err := os.ReadFile(reg.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	infoAfter, err := os.Stat(reg.Path())
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), infoAfter.ModTime(), "file not rewritten")
	assert.Equal(t, again.Len(), reg.Len())
}

func TestReconcileNothingMissingHasNoSideEffects(t *testing.T) {
	// backing file lives in a directory that does not exist: any write would fail
	reg, _ := registry.New(filepath.Join(t.TempDir(), "missing-dir", "airports.csv"), []models.Airport{{IATACode: "SFO"}})
	rec := &runRecorder{}
	svc := NewAutofillService(testZones, rec, logger.Nop())

	result, err := svc.Reconcile(context.Background(), []models.Flight{{From: "SFO", To: "sfo"}}, reg, testMaster)
	require.NoError(t, err)
	assert.Empty(t, result.Missing)
	assert.Empty(t, rec.runs)
}

func TestReconcileUnknownEverywhere(t *testing.T) {
	reg := loadCurated(t)
	before, err := os.ReadFile(reg.Path())
	require.NoError(t, err)

	svc := NewAutofillService(testZones, nil, logger.Nop())
	flights := []models.Flight{
		{TripName: "x", From: "SFO", To: "QQQ", DepartureDate: "2024-01-01", DepartureTime: "08:00", ArrivalDate: "2024-01-01", ArrivalTime: "12:00"},
		{TripName: "y", From: "SFO", To: "NOC", DepartureDate: "2024-01-01", DepartureTime: "08:00", ArrivalDate: "2024-01-01", ArrivalTime: "12:00"},
	}
	result, err := svc.Reconcile(context.Background(), flights, reg, testMaster)
	require.NoError(t, err)
	assert.Empty(t, result.Added)
	assert.Equal(t, []string{"NOC", "QQQ"}, result.Unresolved)

	after, err := os.ReadFile(reg.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)

	out := ComputeDurations(flights, reg)
	require.Len(t, out, 2)
	for _, f := range out {
		assert.Nil(t, f.FlightDurationMinutes)
		assert.Nil(t, f.ToLat)
		assert.False(t, f.Renderable())
	}
}

func TestReconcileRejectsNonFiniteCoordinates(t *testing.T) {
	reg := loadCurated(t)
	svc := NewAutofillService(testZones, nil, logger.Nop())
	master := []models.MasterAirport{
		{IATACode: "INF", Latitude: f64(math.Inf(1)), Longitude: f64(10), Municipality: "inf"},
		{IATACode: "NAN", Latitude: f64(10), Longitude: f64(math.NaN()), Municipality: "nan"},
	}
	flights := []models.Flight{{From: "SFO", To: "INF"}, {From: "NAN", To: "SFO"}}

	result, err := svc.Reconcile(context.Background(), flights, reg, master)
	require.NoError(t, err)
	assert.Empty(t, result.Added)
	assert.Equal(t, []string{"INF", "NAN"}, result.Unresolved)
	assert.False(t, reg.Has("INF"))
}
