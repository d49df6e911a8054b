// scraper/csv_parser.go
package scraper

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/gewnthar/flightlog/models"
	"github.com/jszwec/csvutil"
)

// ErrMissingColumns is wrapped when a CSV header lacks a required column.
var ErrMissingColumns = errors.New("missing required columns")

var utf8BOM = []byte("\uFEFF")

// newDecoder reads the header and checks it carries every required column.
// An empty input is reported as a missing header rather than io.EOF.
// A leading UTF-8 byte order mark, as written by spreadsheet exports, is skipped.
func newDecoder(reader io.Reader, required []string) (*csvutil.Decoder, error) {
	buffered := bufio.NewReader(reader)
	if head, err := buffered.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		buffered.Discard(len(utf8BOM))
	}

	decoder, err := csvutil.NewDecoder(csv.NewReader(buffered))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file, no header row: %w", ErrMissingColumns)
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	present := make(map[string]bool, len(decoder.Header()))
	for _, h := range decoder.Header() {
		present[h] = true
	}
	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingColumns, missing)
	}
	return decoder, nil
}

// ParseAirportsCsv decodes the curated airport registry. Only iata_code is mandatory.
func ParseAirportsCsv(reader io.Reader) ([]models.Airport, error) {
	decoder, err := newDecoder(reader, []string{"iata_code"})
	if err != nil {
		return nil, err
	}
	var airports []models.Airport
	if err := decoder.Decode(&airports); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode airport CSV data: %w", err)
	}
	return airports, nil
}

// ParseMasterAirportsCsv decodes an OurAirports style airports.csv.
func ParseMasterAirportsCsv(reader io.Reader) ([]models.MasterAirport, error) {
	decoder, err := newDecoder(reader, []string{"iata_code", "latitude_deg", "longitude_deg"})
	if err != nil {
		return nil, err
	}
	var airports []models.MasterAirport
	if err := decoder.Decode(&airports); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode master airport CSV data: %w", err)
	}
	return airports, nil
}

// ParseFlightsCsv decodes the flight log. delayed and cancelled may be absent.
// Each flight gets its zero-based row position.
func ParseFlightsCsv(reader io.Reader) ([]models.Flight, error) {
	decoder, err := newDecoder(reader, models.FlightLogRequiredColumns)
	if err != nil {
		return nil, err
	}
	var flights []models.Flight
	if err := decoder.Decode(&flights); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode flight CSV data: %w", err)
	}
	for i := range flights {
		flights[i].Row = i
	}
	return flights, nil
}

// WriteAirportsCsv encodes airports with the registry header, even when empty.
func WriteAirportsCsv(w io.Writer, airports []models.Airport) error {
	writer := csv.NewWriter(w)
	encoder := csvutil.NewEncoder(writer)
	if len(airports) == 0 {
		if err := encoder.EncodeHeader(models.Airport{}); err != nil {
			return fmt.Errorf("failed to encode airport header: %w", err)
		}
	} else if err := encoder.Encode(airports); err != nil {
		return fmt.Errorf("failed to encode airports: %w", err)
	}
	writer.Flush()
	return writer.Error()
}

// WriteEnrichedFlightsCsv encodes the enriched table for the presentation layer.
func WriteEnrichedFlightsCsv(w io.Writer, flights []models.EnrichedFlight) error {
	writer := csv.NewWriter(w)
	encoder := csvutil.NewEncoder(writer)
	if len(flights) == 0 {
		if err := encoder.EncodeHeader(models.EnrichedFlight{}); err != nil {
			return fmt.Errorf("failed to encode flight header: %w", err)
		}
	} else if err := encoder.Encode(flights); err != nil {
		return fmt.Errorf("failed to encode enriched flights: %w", err)
	}
	writer.Flush()
	return writer.Error()
}
