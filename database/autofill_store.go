// database/autofill_store.go
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gewnthar/flightlog/models"
)

// RecordAutofillRun stores one reconciliation summary.
func (s *Store) RecordAutofillRun(ctx context.Context, run models.AutofillRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO autofill_runs (run_id, ran_at, missing_codes, added_codes, unresolved_codes)
		VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.RanAt.UnixMilli(),
		joinCodes(run.Missing), joinCodes(run.Added), joinCodes(run.Unresolved),
	)
	if err != nil {
		return fmt.Errorf("failed to insert autofill run %s: %w", run.RunID, err)
	}
	return nil
}

// GetAutofillRuns returns the most recent runs first.
func (s *Store) GetAutofillRuns(ctx context.Context, limit int) ([]models.AutofillRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, ran_at, missing_codes, added_codes, unresolved_codes
		FROM autofill_runs
		ORDER BY ran_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query autofill_runs: %w", err)
	}
	defer rows.Close()

	var runs []models.AutofillRun
	for rows.Next() {
		var run models.AutofillRun
		var ranAt int64
		var missing, added, unresolved string
		if err := rows.Scan(&run.RunID, &ranAt, &missing, &added, &unresolved); err != nil {
			return nil, fmt.Errorf("failed to scan autofill_runs row: %w", err)
		}
		run.RanAt = time.UnixMilli(ranAt).UTC()
		run.Missing = splitCodes(missing)
		run.Added = splitCodes(added)
		run.Unresolved = splitCodes(unresolved)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating autofill_runs rows: %w", err)
	}
	return runs, nil
}

func joinCodes(codes []string) string {
	return strings.Join(codes, ",")
}

func splitCodes(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
