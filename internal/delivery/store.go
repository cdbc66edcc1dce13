// Package delivery keeps a log of inbound webhook calls, accepted or rejected.
package delivery

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/pushbridge/internal/storage"
	"github.com/mattjoyce/pushbridge/internal/webhook"
)

// DefaultLimit bounds Recent when no limit is given.
const DefaultLimit = 100

// Entry is one persisted delivery.
type Entry struct {
	ID string
	webhook.Delivery
}

// Store is the SQLite-backed delivery log.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// RecordDelivery implements webhook.DeliveryRecorder.
func (s *Store) RecordDelivery(ctx context.Context, d webhook.Delivery) error {
	if d.ReceivedAt.IsZero() {
		d.ReceivedAt = s.now()
	}
	accepted := 0
	if d.Accepted {
		accepted = 1
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO deliveries(id, feed_id, accepted, reason, body_bytes, request_id, received_at)
VALUES(?, ?, ?, ?, ?, ?, ?);
`, uuid.NewString(), d.FeedID, accepted, d.Reason, d.BodyBytes, d.RequestID, d.ReceivedAt.UTC().Format(storage.TimeLayout))
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// Recent returns the newest deliveries first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, feed_id, accepted, reason, body_bytes, request_id, received_at
FROM deliveries
ORDER BY received_at DESC, id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e           Entry
			accepted    int
			receivedAtS string
		)
		if err := rows.Scan(&e.ID, &e.FeedID, &accepted, &e.Reason, &e.BodyBytes, &e.RequestID, &receivedAtS); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		e.Accepted = accepted != 0
		if e.ReceivedAt, err = time.Parse(storage.TimeLayout, receivedAtS); err != nil {
			return nil, fmt.Errorf("parse deliveries.received_at: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}
	return out, nil
}

// Prune deletes deliveries received more than olderThan ago and reports how
// many rows went. A non-positive olderThan keeps everything.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-olderThan).UTC().Format(storage.TimeLayout)

	res, err := s.db.ExecContext(ctx, "DELETE FROM deliveries WHERE received_at < ?;", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune deliveries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune deliveries: %w", err)
	}
	return n, nil
}
