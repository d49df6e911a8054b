// registry/registry.go
//
// Package registry holds the curated airport table keyed by IATA code.
// A Registry is loaded once per run and passed to whoever needs it; nothing
// here is cached process-wide. The backing file is read and rewritten in
// place, so only one process may run an autofill against it at a time.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gewnthar/flightlog/logger"
	"github.com/gewnthar/flightlog/models"
	"github.com/gewnthar/flightlog/scraper"
	"github.com/gewnthar/flightlog/utils"
)

// Registry is an ordered airport table with an index by code.
type Registry struct {
	path     string
	airports []models.Airport
	index    map[string]int
}

// New builds an in-memory registry backed by path. Duplicate codes resolve
// last write wins and are returned so callers can report them.
func New(path string, airports []models.Airport) (*Registry, []string) {
	r := &Registry{path: path, index: make(map[string]int, len(airports))}
	var duplicates []string
	for _, a := range airports {
		a.IATACode = utils.NormalizeAirportCode(a.IATACode)
		if a.IATACode == "" {
			continue
		}
		if i, ok := r.index[a.IATACode]; ok {
			r.airports[i] = a
			duplicates = append(duplicates, a.IATACode)
			continue
		}
		r.index[a.IATACode] = len(r.airports)
		r.airports = append(r.airports, a)
	}
	return r, duplicates
}

// Load reads the registry file. A missing file, a missing iata_code column or
// undecodable rows are a *models.LoadError.
func Load(path string, log *logger.Logger) (*Registry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &models.LoadError{Kind: "airports", Path: path, Err: err}
	}
	defer file.Close()

	airports, err := scraper.ParseAirportsCsv(file)
	if err != nil {
		return nil, &models.LoadError{Kind: "airports", Path: path, Err: err}
	}

	r, duplicates := New(path, airports)
	if skipped := len(airports) - len(r.airports) - len(duplicates); skipped > 0 {
		log.Warn("Skipped airport rows without a code", logger.Int("rows", skipped))
	}
	if len(duplicates) > 0 {
		log.Warn("Duplicate airport codes in registry, last row wins",
			logger.Strings("codes", duplicates))
	}
	log.Debug("Airport registry loaded",
		logger.String("path", path),
		logger.Int("airports", len(r.airports)))
	return r, nil
}

// Path is the backing file.
func (r *Registry) Path() string { return r.path }

// Len is the number of distinct codes.
func (r *Registry) Len() int { return len(r.airports) }

// Lookup returns the airport for code. Absence is reported by ok, never an error.
func (r *Registry) Lookup(code string) (models.Airport, bool) {
	i, ok := r.index[utils.NormalizeAirportCode(code)]
	if !ok {
		return models.Airport{}, false
	}
	return r.airports[i], true
}

// Has reports whether code is present.
func (r *Registry) Has(code string) bool {
	_, ok := r.index[utils.NormalizeAirportCode(code)]
	return ok
}

// Codes returns all codes, sorted.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.index))
	for code := range r.index {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Airports returns a copy of the rows in registry order.
func (r *Registry) Airports() []models.Airport {
	out := make([]models.Airport, len(r.airports))
	copy(out, r.airports)
	return out
}

// Merge appends candidates whose code is not yet present. Existing entries
// are never overwritten: curated rows win over backfilled ones.
func (r *Registry) Merge(candidates []models.Airport) []string {
	var added []string
	for _, a := range candidates {
		a.IATACode = utils.NormalizeAirportCode(a.IATACode)
		if a.IATACode == "" {
			continue
		}
		if _, ok := r.index[a.IATACode]; ok {
			continue
		}
		r.index[a.IATACode] = len(r.airports)
		r.airports = append(r.airports, a)
		added = append(added, a.IATACode)
	}
	return added
}

// Save rewrites the backing file via a temp file and rename.
func (r *Registry) Save() error {
	if r.path == "" {
		return errors.New("registry has no backing file")
	}
	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if err := scraper.WriteAirportsCsv(tmp, r.airports); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write airports to %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", r.path, err)
	}
	return nil
}
