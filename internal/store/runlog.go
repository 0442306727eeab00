package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/dexsync/dexsync/internal/model"
)

// StartRun records the beginning of a pipeline run and returns its id.
func (s *SQLite) StartRun(ctx context.Context, requested int) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (id, status, started_at, requested) VALUES (?, ?, ?, ?)`,
		id, model.RunStatusRunning, time.Now().UTC(), requested,
	)
	if err != nil {
		return "", eris.Wrap(err, "store: start run")
	}
	return id, nil
}

// CompleteRun marks a run as successfully completed with its counts.
func (s *SQLite) CompleteRun(ctx context.Context, runID string, fetched, loaded int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sync_runs SET status = ?, finished_at = ?, fetched = ?, loaded = ? WHERE id = ?`,
		model.RunStatusComplete, time.Now().UTC(), fetched, loaded, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "store: complete run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

// FailRun marks a run as failed with the cause.
func (s *SQLite) FailRun(ctx context.Context, runID string, fetched int, cause string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sync_runs SET status = ?, finished_at = ?, fetched = ?, error = ? WHERE id = ?`,
		model.RunStatusFailed, time.Now().UTC(), fetched, cause, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "store: fail run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

// RecentRuns returns the most recent runs, newest first.
func (s *SQLite) RecentRuns(ctx context.Context, limit int) ([]model.SyncRun, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, started_at, finished_at, requested, fetched, loaded, error
		 FROM sync_runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: list runs")
	}
	defer rows.Close()

	var runs []model.SyncRun
	for rows.Next() {
		var (
			r        model.SyncRun
			finished sql.NullTime
			cause    sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Status, &r.StartedAt, &finished, &r.Requested, &r.Fetched, &r.Loaded, &cause); err != nil {
			return nil, eris.Wrap(err, "store: scan run")
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		r.Error = cause.String
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "store: iterate runs")
}

func checkRowsAffected(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "store: rows affected")
	}
	if n == 0 {
		return eris.Errorf("store: run not found: %s", runID)
	}
	return nil
}
