package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/rigforge/internal/relay"
)

const (
	fetchPendingSQL = `SELECT id, event_id, topic, key, payload, created_at FROM outbox
		WHERE sent_at IS NULL ORDER BY id LIMIT $1`

	markSentSQL = `UPDATE outbox SET sent_at = now() WHERE id = ANY($1)`

	countPendingSQL = `SELECT count(*) FROM outbox WHERE sent_at IS NULL`
)

var _ relay.Store = (*OutboxStore)(nil)

// OutboxStore reads and acknowledges queued events.
type OutboxStore struct {
	pool *pgxpool.Pool
}

// NewOutboxStore returns an OutboxStore that uses the given pool.
func NewOutboxStore(pool *pgxpool.Pool) *OutboxStore {
	return &OutboxStore{pool: pool}
}

// FetchPending returns up to limit unsent records in insertion order.
func (s *OutboxStore) FetchPending(ctx context.Context, limit int) ([]relay.Record, error) {
	rows, err := s.pool.Query(ctx, fetchPendingSQL, limit)
	if err != nil {
		return nil, errors.Wrap(err, "fetch pending")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (relay.Record, error) {
		var rec relay.Record
		err := row.Scan(&rec.ID, &rec.EventID, &rec.Topic, &rec.Key, &rec.Payload, &rec.CreatedAt)
		return rec, err
	})
}

// MarkSent stamps the given records as delivered.
func (s *OutboxStore) MarkSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, markSentSQL, ids); err != nil {
		return errors.Wrap(err, "mark sent")
	}
	return nil
}

// Pending counts unsent records.
func (s *OutboxStore) Pending(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, countPendingSQL).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count pending")
	}
	return n, nil
}
