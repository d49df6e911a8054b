// models/meta.go
package models

import "time"

// DataSourceVersion tracks the last successful download of a remote data source.
type DataSourceVersion struct {
	SourceName       string    `db:"source_name" json:"source_name"` // e.g., "OURAIRPORTS_MASTER"
	SourceURL        string    `db:"source_url" json:"source_url"`
	CachePath        string    `db:"cache_path" json:"cache_path"`
	ByteCount        int64     `db:"byte_count" json:"byte_count"`
	DataHash         string    `db:"data_hash" json:"data_hash,omitempty"` // sha256 of the raw body
	RowCount         int       `db:"row_count" json:"row_count"`
	LastDownloadedAt time.Time `db:"last_downloaded_at" json:"last_downloaded_at"`
}

// AutofillRun records one reconciliation that found missing airports.
type AutofillRun struct {
	RunID      string    `db:"run_id" json:"run_id"`
	RanAt      time.Time `db:"ran_at" json:"ran_at"`
	Missing    []string  `db:"missing_codes" json:"missing"`
	Added      []string  `db:"added_codes" json:"added"`
	Unresolved []string  `db:"unresolved_codes" json:"unresolved"`
}
