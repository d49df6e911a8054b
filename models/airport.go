// models/airport.go
package models

// Airport is one row of the curated registry (data/airports.csv).
// Coordinates are pointers so a blank cell stays distinguishable from 0,0.
type Airport struct {
	IATACode     string   `csv:"iata_code" json:"iata_code"`
	Latitude     *float64 `csv:"latitude_deg" json:"latitude_deg"`
	Longitude    *float64 `csv:"longitude_deg" json:"longitude_deg"`
	TimeZone     string   `csv:"time_zone" json:"time_zone"`
	Municipality string   `csv:"municipality" json:"municipality"`
	Country      string   `csv:"country" json:"country"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (a Airport) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// MasterAirport is the subset of the OurAirports airports.csv columns we use.
// The file carries many more columns; csvutil ignores the ones without a tag.
type MasterAirport struct {
	IATACode     string   `csv:"iata_code"`
	Latitude     *float64 `csv:"latitude_deg"`
	Longitude    *float64 `csv:"longitude_deg"`
	Municipality string   `csv:"municipality"`
	Country      string   `csv:"iso_country"`
}
