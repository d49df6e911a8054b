// database/datasource_store.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/gewnthar/flightlog/logger"
	"github.com/gewnthar/flightlog/models"
)

// RecordDataSourceVersion replaces the row for v.SourceName. Delete and insert
// in one transaction, since MySQL and SQLite spell upserts differently.
func (s *Store) RecordDataSourceVersion(ctx context.Context, v models.DataSourceVersion) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM data_source_versions WHERE source_name = ?`, v.SourceName); err != nil {
		return fmt.Errorf("failed to clear data source version for %s: %w", v.SourceName, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO data_source_versions (
			source_name, source_url, cache_path, byte_count,
			data_hash, row_count, last_downloaded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.SourceName, v.SourceURL, v.CachePath, v.ByteCount,
		v.DataHash, v.RowCount, v.LastDownloadedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to log data source version for %s: %w", v.SourceName, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit data source version for %s: %w", v.SourceName, err)
	}

	s.logger.Debug("Logged data source version",
		logger.String("source", v.SourceName),
		logger.Int("rows", v.RowCount))
	return nil
}

// GetDataSourceVersions returns all recorded sources ordered by name.
func (s *Store) GetDataSourceVersions(ctx context.Context) ([]models.DataSourceVersion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_name, source_url, cache_path, byte_count,
		       data_hash, row_count, last_downloaded_at
		FROM data_source_versions
		ORDER BY source_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query data_source_versions: %w", err)
	}
	defer rows.Close()

	var versions []models.DataSourceVersion
	for rows.Next() {
		var v models.DataSourceVersion
		var downloadedAt int64
		if err := rows.Scan(&v.SourceName, &v.SourceURL, &v.CachePath, &v.ByteCount,
			&v.DataHash, &v.RowCount, &downloadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan data_source_versions row: %w", err)
		}
		v.LastDownloadedAt = time.UnixMilli(downloadedAt).UTC()
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating data_source_versions rows: %w", err)
	}
	return versions, nil
}
