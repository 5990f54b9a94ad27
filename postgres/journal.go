package postgres

import (
	"context"
	"fmt"

	"github.com/etnz/payments"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS rejected_events (
	run_id     TEXT        NOT NULL,
	seq        BIGINT      NOT NULL,
	type       TEXT        NOT NULL,
	client_id  INTEGER     NOT NULL,
	tx_id      BIGINT      NOT NULL,
	kind       TEXT        NOT NULL,
	reason     TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, seq)
)`

const insertRejection = `
INSERT INTO rejected_events (run_id, seq, type, client_id, tx_id, kind, reason)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (run_id, seq) DO NOTHING`

// Journal is a payments.Sink recording rejections in the rejected_events
// table.
//
// Reject only buffers, Flush writes the buffer in a single batch. This keeps
// database round trips out of the processing loop.
type Journal struct {
	pool  *pgxpool.Pool
	runID string
	log   logrus.FieldLogger

	mu      deadlock.Mutex
	pending []payments.Rejection
}

// NewJournal creates the rejected_events table if needed and returns a
// journal for runID.
func NewJournal(ctx context.Context, pool *pgxpool.Pool, runID string, log logrus.FieldLogger) (*Journal, error) {
	if _, err := pool.Exec(ctx, journalSchema); err != nil {
		return nil, fmt.Errorf("failed to create rejected_events: %w", err)
	}
	return &Journal{pool: pool, runID: runID, log: log}, nil
}

// Reject buffers r until the next Flush.
func (j *Journal) Reject(r payments.Rejection) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pending = append(j.pending, r)
}

// Pending returns the number of buffered rejections.
func (j *Journal) Pending() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.pending)
}

// Flush writes buffered rejections and returns how many were written. On
// failure the rejections stay buffered for the next attempt.
func (j *Journal) Flush(ctx context.Context) (int, error) {
	j.mu.Lock()
	pending := j.pending
	j.pending = nil
	j.mu.Unlock()
	if len(pending) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, r := range pending {
		batch.Queue(insertRejection,
			j.runID, int64(r.Seq), string(r.Type), int32(r.Client), int64(r.Tx), string(r.Kind()), r.Err.Error())
	}
	br := j.pool.SendBatch(ctx, batch)
	var err error
	for range pending {
		if _, err = br.Exec(); err != nil {
			break
		}
	}
	if cerr := br.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		j.mu.Lock()
		j.pending = append(pending, j.pending...)
		j.mu.Unlock()
		return 0, fmt.Errorf("failed to write rejections: %w", err)
	}

	j.log.WithFields(logrus.Fields{
		"run_id":     j.runID,
		"rejections": len(pending),
	}).Debug("rejections flushed")
	return len(pending), nil
}

// Count returns the number of rejections recorded for the journal's run,
// grouped by kind.
func (j *Journal) Count(ctx context.Context) (map[payments.ErrorKind]int, error) {
	rows, err := j.pool.Query(ctx, `SELECT kind, count(*) FROM rejected_events WHERE run_id = $1 GROUP BY kind`, j.runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count rejections: %w", err)
	}
	defer rows.Close()

	counts := make(map[payments.ErrorKind]int)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[payments.ErrorKind(kind)] = int(n)
	}
	return counts, rows.Err()
}
