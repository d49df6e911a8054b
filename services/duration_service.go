// services/duration_service.go
package services

import (
	"fmt"
	"sort"
	"strings"
	"time"
	_ "time/tzdata" // zone lookups must not depend on the host's zoneinfo

	"github.com/gewnthar/flightlog/models"
)

// AirportLookup is the read side of the registry used for durations.
type AirportLookup interface {
	Lookup(code string) (models.Airport, bool)
}

// Local times are naive wall clock; seconds are optional. Month, day and hour
// may be written without a leading zero.
var localTimeLayouts = []string{"2006-1-2 15:04", "2006-1-2 15:04:05"}

// ComputeDurations enriches every leg with its flight duration, transfer
// duration, coordinates and city names. A leg that cannot be resolved gets nil
// fields and a ResolutionFailure; it never stops the other legs.
//
// Within a trip, legs are chained by arrival instant, ties broken by file
// row. Legs whose arrival cannot be resolved are left out of the chain.
func ComputeDurations(flights []models.Flight, airports AirportLookup) []models.EnrichedFlight {
	zones := &zoneResolver{airports: airports, locations: make(map[string]cachedZone)}

	out := make([]models.EnrichedFlight, len(flights))
	deps := make([]*time.Time, len(flights))
	arrs := make([]*time.Time, len(flights))

	for i, f := range flights {
		e := models.EnrichedFlight{Flight: f}
		if a, ok := airports.Lookup(f.From); ok {
			e.FromCity = a.Municipality
			if a.HasCoordinates() {
				e.FromLat, e.FromLon = a.Latitude, a.Longitude
			}
		}
		if a, ok := airports.Lookup(f.To); ok {
			e.ToCity = a.Municipality
			if a.HasCoordinates() {
				e.ToLat, e.ToLon = a.Latitude, a.Longitude
			}
		}

		dep, failure := zones.instant("departure", f.From, f.DepartureDate, f.DepartureTime)
		if failure != nil {
			e.Issues = append(e.Issues, *failure)
		}
		arr, failure := zones.instant("arrival", f.To, f.ArrivalDate, f.ArrivalTime)
		if failure != nil {
			e.Issues = append(e.Issues, *failure)
		}
		if dep != nil && arr != nil {
			minutes := arr.Sub(*dep).Minutes()
			e.FlightDurationMinutes = &minutes
		}

		out[i], deps[i], arrs[i] = e, dep, arr
	}

	applyTransfers(out, deps, arrs)
	return out
}

func applyTransfers(out []models.EnrichedFlight, deps, arrs []*time.Time) {
	var tripOrder []string
	trips := make(map[string][]int)
	for i := range out {
		name := strings.TrimSpace(out[i].TripName)
		if name == "" || arrs[i] == nil {
			continue
		}
		if _, ok := trips[name]; !ok {
			tripOrder = append(tripOrder, name)
		}
		trips[name] = append(trips[name], i)
	}

	for _, name := range tripOrder {
		legs := trips[name]
		sort.SliceStable(legs, func(a, b int) bool {
			ta, tb := arrs[legs[a]], arrs[legs[b]]
			if !ta.Equal(*tb) {
				return ta.Before(*tb)
			}
			return out[legs[a]].Row < out[legs[b]].Row
		})
		for k := 0; k+1 < len(legs); k++ {
			cur, next := legs[k], legs[k+1]
			if deps[next] == nil {
				continue
			}
			minutes := deps[next].Sub(*arrs[cur]).Minutes()
			out[cur].TransferDurationMinutes = &minutes
		}
	}
}

// zoneResolver turns (airport, date, time) into an instant, caching zones per run.
type zoneResolver struct {
	airports  AirportLookup
	locations map[string]cachedZone
}

type cachedZone struct {
	loc *time.Location
	err error
}

func (z *zoneResolver) instant(field, code, date, clock string) (*time.Time, *models.ResolutionFailure) {
	fail := func(reason, detail string) (*time.Time, *models.ResolutionFailure) {
		return nil, &models.ResolutionFailure{Field: field, Code: code, Reason: reason, Detail: detail}
	}

	airport, ok := z.airports.Lookup(code)
	if !ok {
		return fail(models.ReasonUnknownAirport, "")
	}
	if airport.TimeZone == "" {
		return fail(models.ReasonUnknownTimezone, "")
	}
	zone, ok := z.locations[airport.TimeZone]
	if !ok {
		zone.loc, zone.err = time.LoadLocation(airport.TimeZone)
		z.locations[airport.TimeZone] = zone
	}
	if zone.err != nil {
		return fail(models.ReasonUnknownTimezone, zone.err.Error())
	}

	t, err := ParseLocal(date, clock, zone.loc)
	if err != nil {
		return fail(models.ReasonBadDateTime, err.Error())
	}
	return &t, nil
}

// ParseLocal reads a naive "YYYY-M-D" date and "H:MM[:SS]" time as wall
// clock in loc.
func ParseLocal(date, clock string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(date) + " " + strings.TrimSpace(clock)
	for _, layout := range localTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as local date and time", value)
}
