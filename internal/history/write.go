package history

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/catshift/internal/engine"
)

// WriteReport records one finished run and its failures in a single
// transaction. Writing the same run id twice is a no-op, so a caller that
// retries after a crash between write and exit cannot duplicate history.
func (s *Store) WriteReport(ctx context.Context, r *engine.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, command, started_at, finished_at, attempted, failed)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.RunID,
		r.Command,
		r.StartedAt.Format(time.RFC3339Nano),
		r.FinishedAt.Format(time.RFC3339Nano),
		r.TotalAttempted(),
		len(r.Failures),
	)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Already recorded.
		return nil
	}

	for i, f := range r.Failures {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO failures (run_id, seq, identifier, collection, status, body)
			VALUES (?, ?, ?, ?, ?, ?)
		`, r.RunID, i, f.Identifier, f.Collection, f.Status, f.Body); err != nil {
			return fmt.Errorf("write failure %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
