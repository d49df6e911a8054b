// models/errors.go
package models

import "fmt"

// LoadError is a structural problem with an input file. It aborts the run.
type LoadError struct {
	Kind string // "airports", "flights", "master"
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// FetchError is a failed download of the master airport table.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Resolution failure reasons.
const (
	ReasonUnknownAirport  = "unknown_airport"
	ReasonUnknownTimezone = "unknown_timezone"
	ReasonBadDateTime     = "unparseable_datetime"
)

// ResolutionFailure explains why a derived field of one flight is null.
// It is data, not an error: the batch always continues.
type ResolutionFailure struct {
	Field  string `json:"field"` // "departure" or "arrival"
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

func (r ResolutionFailure) String() string {
	if r.Detail != "" {
		return fmt.Sprintf("%s %s: %s (%s)", r.Field, r.Code, r.Reason, r.Detail)
	}
	return fmt.Sprintf("%s %s: %s", r.Field, r.Code, r.Reason)
}
