// models/flight.go
package models

import (
	"strconv"
	"strings"
)

// Flag is a boolean CSV cell where a blank or absent cell means false.
type Flag bool

func (f *Flag) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "0", "f", "false", "n", "no":
		*f = false
	default:
		*f = true
	}
	return nil
}

func (f Flag) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatBool(bool(f))), nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatBool(bool(f))), nil
}

// Flight is one leg from the flight log (data/my_flights.csv).
// Dates and times stay as the raw strings so a bad cell fails only its own row.
type Flight struct {
	TripName      string `csv:"trip_name" json:"trip_name"`
	From          string `csv:"from" json:"from"`
	To            string `csv:"to" json:"to"`
	DepartureDate string `csv:"departure_date" json:"departure_date"`
	DepartureTime string `csv:"departure_time" json:"departure_time"`
	ArrivalDate   string `csv:"arrival_date" json:"arrival_date"`
	ArrivalTime   string `csv:"arrival_time" json:"arrival_time"`
	Airline       string `csv:"airline" json:"airline"`
	FlightNumber  string `csv:"flight_number" json:"flight_number"`
	Delayed       Flag   `csv:"delayed" json:"delayed"`
	Cancelled     Flag   `csv:"cancelled" json:"cancelled"`

	// Row is the zero-based position in the log file. Used as the ordering tie-break.
	Row int `csv:"-" json:"-"`
}

// FlightLogRequiredColumns must all be present in the flight log header.
var FlightLogRequiredColumns = []string{
	"trip_name", "from", "to",
	"departure_date", "departure_time",
	"arrival_date", "arrival_time",
	"airline", "flight_number",
}

// EnrichedFlight is the table handed to the presentation layer.
type EnrichedFlight struct {
	Flight

	FlightDurationMinutes   *float64 `csv:"flight_duration_minutes" json:"flight_duration_minutes"`
	TransferDurationMinutes *float64 `csv:"transfer_duration_minutes" json:"transfer_duration_minutes"`

	FromLat  *float64 `csv:"from_lat" json:"from_lat"`
	FromLon  *float64 `csv:"from_lon" json:"from_lon"`
	ToLat    *float64 `csv:"to_lat" json:"to_lat"`
	ToLon    *float64 `csv:"to_lon" json:"to_lon"`
	FromCity string   `csv:"from_city" json:"from_city"`
	ToCity   string   `csv:"to_city" json:"to_city"`

	Issues []ResolutionFailure `csv:"-" json:"issues,omitempty"`
}

// Renderable reports whether both endpoints have coordinates.
func (f EnrichedFlight) Renderable() bool {
	return f.FromLat != nil && f.FromLon != nil && f.ToLat != nil && f.ToLon != nil
}
