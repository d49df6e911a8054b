// models/api_models.go
package models

import "time"

// Snapshot is the result of one pipeline run, served by the API.
type Snapshot struct {
	GeneratedAt     time.Time        `json:"generated_at"`
	Flights         []EnrichedFlight `json:"flights"`
	MissingAirports []string         `json:"missing_airports"`
	AddedAirports   []string         `json:"added_airports"`
}

// RefreshResponse is returned by POST /api/admin/refresh.
type RefreshResponse struct {
	Message         string    `json:"message"`
	GeneratedAt     time.Time `json:"generated_at"`
	FlightCount     int       `json:"flight_count"`
	MissingAirports []string  `json:"missing_airports"`
	AddedAirports   []string  `json:"added_airports"`
}
