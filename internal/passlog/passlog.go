// Package passlog records every batch pass run with its outcome and
// stats, giving the status command and the trigger API their history.
package passlog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/adlens/spend-cli/internal/db"
)

// Entry represents a row in pass_log.
type Entry struct {
	ID          int64          `json:"id"`
	Pass        string         `json:"pass"`
	Scope       string         `json:"scope,omitempty"`
	Status      string         `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Error       string         `json:"error,omitempty"`
	Stats       map[string]any `json:"stats,omitempty"`
}

// Log provides read/write access to the pass_log table.
type Log struct {
	pool db.Pool
}

// NewLog creates a new Log backed by the given connection pool.
func NewLog(pool db.Pool) *Log {
	return &Log{pool: pool}
}

// Start records the beginning of a pass run and returns its ID.
func (l *Log) Start(ctx context.Context, pass, scope string) (int64, error) {
	var id int64
	err := l.pool.QueryRow(ctx,
		`INSERT INTO pass_log (pass, scope, status, started_at)
		 VALUES ($1, $2, 'running', now()) RETURNING id`,
		pass, scope,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "passlog: start pass %s", pass)
	}
	return id, nil
}

// Complete marks a pass run as successfully completed, attaching its
// stats summary.
func (l *Log) Complete(ctx context.Context, runID int64, stats any) error {
	var statsJSON []byte
	if stats != nil {
		var err error
		statsJSON, err = json.Marshal(stats)
		if err != nil {
			return eris.Wrap(err, "passlog: marshal stats")
		}
	}

	_, err := l.pool.Exec(ctx,
		`UPDATE pass_log
		 SET status = 'complete', completed_at = now(), stats = $1
		 WHERE id = $2`,
		statsJSON, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "passlog: complete run %d", runID)
	}
	return nil
}

// Fail marks a pass run as failed with an error message.
func (l *Log) Fail(ctx context.Context, runID int64, errMsg string) error {
	_, err := l.pool.Exec(ctx,
		`UPDATE pass_log
		 SET status = 'failed', completed_at = now(), error = $1
		 WHERE id = $2`,
		errMsg, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "passlog: fail run %d", runID)
	}
	return nil
}

// LastSuccess returns the started_at time of the most recent complete
// run of a pass. Returns nil if the pass has never completed.
func (l *Log) LastSuccess(ctx context.Context, pass string) (*time.Time, error) {
	var t time.Time
	err := l.pool.QueryRow(ctx,
		`SELECT started_at FROM pass_log
		 WHERE pass = $1 AND status = 'complete'
		 ORDER BY started_at DESC LIMIT 1`,
		pass,
	).Scan(&t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "passlog: last success for %s", pass)
	}
	return &t, nil
}

// List returns the most recent pass runs, newest first.
func (l *Log) List(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, pass, scope, status, started_at, completed_at, error, stats
		 FROM pass_log ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "passlog: list runs")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var completedAt *time.Time
		var errStr *string
		var statsJSON []byte
		if err := rows.Scan(&e.ID, &e.Pass, &e.Scope, &e.Status, &e.StartedAt, &completedAt, &errStr, &statsJSON); err != nil {
			return nil, eris.Wrap(err, "passlog: scan entry")
		}
		e.CompletedAt = completedAt
		if errStr != nil {
			e.Error = *errStr
		}
		if statsJSON != nil {
			_ = json.Unmarshal(statsJSON, &e.Stats)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
