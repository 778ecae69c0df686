package history

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/catshift/internal/engine"
)

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Attempted  int       `json:"attempted"`
	Failed     int       `json:"failed"`
}

// ListRuns returns all recorded runs, newest first. Run ids are UUIDv7, so
// id order is creation order.
func (s *Store) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, command, started_at, finished_at, attempted, failed
		FROM runs ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started, finished string
		if err := rows.Scan(&rec.ID, &rec.Command, &started, &finished, &rec.Attempted, &rec.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if rec.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// RunFailures returns the recorded failures of one run in record order.
// A run with no failures returns an empty slice; an unknown run id is not
// distinguished from one.
func (s *Store) RunFailures(ctx context.Context, runID string) ([]engine.ItemFailure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT identifier, collection, status, body
		FROM failures WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list failures: %w", err)
	}
	defer rows.Close()

	var failures []engine.ItemFailure
	for rows.Next() {
		var f engine.ItemFailure
		if err := rows.Scan(&f.Identifier, &f.Collection, &f.Status, &f.Body); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}
