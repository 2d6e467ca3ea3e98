package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	"github.com/sakina-app/sakina-server/internal/model"
)

const (
	enqueueSQL = `
INSERT INTO outbox (op, aggregate_id, payload)
SELECT $1::text, $2::text, $3::jsonb
WHERE NOT EXISTS (
    SELECT 1 FROM outbox WHERE op=$1::text AND aggregate_id=$2::text AND status='pending'
)`

	// leaseSQL pushes next_attempt_at forward so a crashed worker's rows
	// become visible again once the lease runs out.
	leaseSQL = `
UPDATE outbox
SET next_attempt_at = now() + make_interval(secs => $2), update_time = now()
WHERE id IN (
    SELECT id FROM outbox
    WHERE status = 'pending' AND next_attempt_at <= now()
    ORDER BY id ASC
    FOR UPDATE SKIP LOCKED
    LIMIT $1
)
RETURNING id, op, aggregate_id, attempt_count, payload`

	markDoneSQL = `UPDATE outbox SET status='done', update_time=now() WHERE id=$1`

	markFailedSQL = `
UPDATE outbox
SET attempt_count = attempt_count + 1, last_error = $2, next_attempt_at = $3, update_time = now()
WHERE id=$1`

	markDeadSQL = `
UPDATE outbox
SET status = 'dead', attempt_count = attempt_count + 1, last_error = $2, update_time = now()
WHERE id=$1`
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func writeOutbox(ctx context.Context, x execer, op string, aggregateID string, payload map[string]interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = x.ExecContext(ctx, enqueueSQL, op, aggregateID, string(b))
	return err
}

type outbox struct{ db *sql.DB }

func (o *outbox) Enqueue(ctx context.Context, op, aggregateID string, payload map[string]interface{}) error {
	return writeOutbox(ctx, o.db, op, aggregateID, payload)
}

func (o *outbox) Lease(ctx context.Context, limit int, leaseFor time.Duration) ([]model.OutboxJob, error) {
	rows, err := o.db.QueryContext(ctx, leaseSQL, limit, leaseFor.Seconds())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var jobs []model.OutboxJob
	for rows.Next() {
		var j model.OutboxJob
		var raw []byte
		if err := rows.Scan(&j.ID, &j.Op, &j.AggregateID, &j.Attempts, &raw); err != nil {
			return nil, err
		}
		// a bad payload reaches the worker as nil and fails there
		if err := json.Unmarshal(raw, &j.Payload); err != nil {
			j.Payload = nil
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(jobs, func(a, b int) bool { return jobs[a].ID < jobs[b].ID })
	return jobs, nil
}

func (o *outbox) MarkDone(ctx context.Context, id int64) error {
	_, err := o.db.ExecContext(ctx, markDoneSQL, id)
	return err
}

func (o *outbox) MarkFailed(ctx context.Context, id int64, cause string, retryAt time.Time) error {
	_, err := o.db.ExecContext(ctx, markFailedSQL, id, cause, retryAt.UTC())
	return err
}

func (o *outbox) MarkDead(ctx context.Context, id int64, cause string) error {
	_, err := o.db.ExecContext(ctx, markDeadSQL, id, cause)
	return err
}
