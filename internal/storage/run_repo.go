package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunRepo records pipeline runs against a root.
type RunRepo struct {
	db querier
}

// Start inserts a running run record. A fresh UUID is generated when id is empty.
func (r *RunRepo) Start(ctx context.Context, id, root string) (*Run, error) {
	if id == "" {
		id = uuid.New().String()
	}
	run := &Run{
		ID:        id,
		Root:      root,
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
	}
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO runs (id, root, status, started_at) VALUES (?, ?, ?, ?)",
		run.ID, run.Root, run.Status, formatTime(run.StartedAt),
	); err != nil {
		return nil, classify("start run", err)
	}
	return run, nil
}

// Finish closes a run with its counters. A non-nil runErr marks the run failed.
func (r *RunRepo) Finish(ctx context.Context, id string, counts RunCounts, runErr error) error {
	status := RunCompleted
	var errText any
	if runErr != nil {
		status = RunFailed
		errText = runErr.Error()
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, scanned = ?, enriched = ?,
			classified = ?, failed_batches = ?, error = ?
		 WHERE id = ?`,
		status, formatTime(time.Now()), counts.Scanned, counts.Enriched,
		counts.Classified, counts.FailedBatches, errText, id,
	)
	if err != nil {
		return classify(fmt.Sprintf("finish run %s", id), err)
	}
	return requireAffected(result, fmt.Sprintf("finish run %s", id))
}

// Latest returns the most recently started run. Returns ErrNotFound if none exist.
func (r *RunRepo) Latest(ctx context.Context) (*Run, error) {
	var run Run
	var startedAt string
	var finishedAt, errText sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, root, status, started_at, finished_at, scanned, enriched,
			classified, failed_batches, error
		 FROM runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&run.ID, &run.Root, &run.Status, &startedAt, &finishedAt, &run.Scanned,
		&run.Enriched, &run.Classified, &run.FailedBatches, &errText)
	if err != nil {
		return nil, classify("latest run", err)
	}

	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		if run.FinishedAt, err = parseTime(finishedAt.String); err != nil {
			return nil, err
		}
	}
	run.Error = errText.String
	return &run, nil
}
