package feed

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/pushbridge/internal/storage"
	"github.com/mattjoyce/pushbridge/internal/webhook"
)

var (
	// ErrNotFound matches lookups of unknown feeds; it is the receiver's ErrFeedNotFound.
	ErrNotFound = webhook.ErrFeedNotFound
	// ErrDuplicate is returned when a feed with the same id or URL exists.
	ErrDuplicate = errors.New("feed already exists")
)

// DefaultNotificationLimit bounds Notifications when no limit is given.
const DefaultNotificationLimit = 50

// Store persists feed records and the notifications delivered for them.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Create inserts rec. An empty ID gets a UUID and an empty Secret gets a
// generated one; the stored record is returned.
func (s *Store) Create(ctx context.Context, rec Record) (*Record, error) {
	rec.URL = strings.TrimSpace(rec.URL)
	if rec.URL == "" {
		return nil, fmt.Errorf("feed url is empty")
	}
	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Secret == "" {
		secret, err := GenerateSecret()
		if err != nil {
			return nil, err
		}
		rec.Secret = secret
	}
	rec.CreatedAt = s.now().UTC()
	rec.LastNotifiedAt = nil

	_, err := s.db.ExecContext(ctx, `
INSERT INTO feeds(id, url, secret, title, created_at)
VALUES(?, ?, ?, ?, ?);
`, rec.ID, rec.URL, rec.Secret, rec.Title, rec.CreatedAt.Format(storage.TimeLayout))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: id=%q url=%q", ErrDuplicate, rec.ID, rec.URL)
		}
		return nil, fmt.Errorf("insert feed: %w", err)
	}
	return &rec, nil
}

// Get returns one feed by id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("feed id is empty: %w", ErrNotFound)
	}

	row := s.db.QueryRowContext(ctx, `
SELECT id, url, secret, title, created_at, last_notified_at
FROM feeds
WHERE id = ?;
`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("feed %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns all feeds ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, url, secret, title, created_at, last_notified_at
FROM feeds
ORDER BY created_at, id;
`)
	if err != nil {
		return nil, fmt.Errorf("query feeds: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feeds: %w", err)
	}
	return out, nil
}

// Delete removes a feed and its notifications.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM notifications WHERE feed_id = ?;", id); err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM feeds WHERE id = ?;", id)
	if err != nil {
		return fmt.Errorf("delete feed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("feed %q: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// FindFeed implements webhook.FeedFinder.
func (s *Store) FindFeed(ctx context.Context, id string) (webhook.Feed, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// RecordNotification stores a verified payload and stamps the feed's last_notified_at.
func (s *Store) RecordNotification(ctx context.Context, feedID string, params url.Values, body []byte) (*Notification, error) {
	if params == nil {
		params = url.Values{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	n := &Notification{
		ID:         uuid.NewString(),
		FeedID:     feedID,
		Params:     params,
		Body:       body,
		ReceivedAt: s.now().UTC(),
	}
	at := n.ReceivedAt.Format(storage.TimeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "UPDATE feeds SET last_notified_at = ? WHERE id = ?;", at, feedID)
	if err != nil {
		return nil, fmt.Errorf("touch feed: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return nil, fmt.Errorf("feed %q: %w", feedID, ErrNotFound)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO notifications(id, feed_id, params, body, received_at)
VALUES(?, ?, ?, ?, ?);
`, n.ID, n.FeedID, string(paramsJSON), body, at)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit notification: %w", err)
	}
	return n, nil
}

// Notifications returns the most recent notifications for a feed, newest first.
func (s *Store) Notifications(ctx context.Context, feedID string, limit int) ([]*Notification, error) {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, feed_id, params, body, received_at
FROM notifications
WHERE feed_id = ?
ORDER BY received_at DESC, id DESC
LIMIT ?;
`, feedID, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		var (
			n           Notification
			paramsJSON  string
			receivedAtS string
		)
		if err := rows.Scan(&n.ID, &n.FeedID, &paramsJSON, &n.Body, &receivedAtS); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if err := json.Unmarshal([]byte(paramsJSON), &n.Params); err != nil {
			return nil, fmt.Errorf("decode notification params: %w", err)
		}
		if n.ReceivedAt, err = time.Parse(storage.TimeLayout, receivedAtS); err != nil {
			return nil, fmt.Errorf("parse notifications.received_at: %w", err)
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

// Notifier returns the receiver callback that persists every verified payload.
func (s *Store) Notifier() webhook.Notifier {
	return webhook.NotifyWithBody(func(ctx context.Context, f webhook.Feed, params url.Values, body []byte) error {
		_, err := s.RecordNotification(ctx, f.FeedID(), params, body)
		return err
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec        Record
		createdAtS string
		notifiedAt sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.URL, &rec.Secret, &rec.Title, &createdAtS, &notifiedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan feed: %w", err)
	}

	createdAt, err := time.Parse(storage.TimeLayout, createdAtS)
	if err != nil {
		return nil, fmt.Errorf("parse feeds.created_at: %w", err)
	}
	rec.CreatedAt = createdAt

	if notifiedAt.Valid {
		t, err := time.Parse(storage.TimeLayout, notifiedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse feeds.last_notified_at: %w", err)
		}
		rec.LastNotifiedAt = &t
	}
	return &rec, nil
}
