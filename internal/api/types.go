package api

import (
	"time"

	"github.com/mattjoyce/pushbridge/internal/delivery"
	"github.com/mattjoyce/pushbridge/internal/feed"
)

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Feeds         int    `json:"feeds"`
	Subscribers   int    `json:"event_subscribers"`
}

// FeedResponse describes a feed. Secrets are never exposed.
type FeedResponse struct {
	ID             string     `json:"id"`
	URL            string     `json:"url"`
	Title          string     `json:"title,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastNotifiedAt *time.Time `json:"last_notified_at,omitempty"`
}

// FeedListResponse is returned by GET /feeds.
type FeedListResponse struct {
	Feeds []FeedResponse `json:"feeds"`
}

// NotificationResponse is one stored notification.
type NotificationResponse struct {
	ID         string              `json:"id"`
	Params     map[string][]string `json:"params"`
	Body       string              `json:"body"`
	ReceivedAt time.Time           `json:"received_at"`
}

// NotificationListResponse is returned by GET /feeds/{id}/notifications.
type NotificationListResponse struct {
	FeedID        string                 `json:"feed_id"`
	Notifications []NotificationResponse `json:"notifications"`
}

// DeliveryResponse is one delivery log row.
type DeliveryResponse struct {
	ID         string    `json:"id"`
	FeedID     string    `json:"feed_id"`
	Accepted   bool      `json:"accepted"`
	Reason     string    `json:"reason,omitempty"`
	BodyBytes  int       `json:"body_bytes"`
	RequestID  string    `json:"request_id,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// DeliveryListResponse is returned by GET /deliveries.
type DeliveryListResponse struct {
	Deliveries []DeliveryResponse `json:"deliveries"`
}

func feedResponse(rec *feed.Record) FeedResponse {
	return FeedResponse{
		ID:             rec.ID,
		URL:            rec.URL,
		Title:          rec.Title,
		CreatedAt:      rec.CreatedAt,
		LastNotifiedAt: rec.LastNotifiedAt,
	}
}

func deliveryResponse(e delivery.Entry) DeliveryResponse {
	return DeliveryResponse{
		ID:         e.ID,
		FeedID:     e.FeedID,
		Accepted:   e.Accepted,
		Reason:     e.Reason,
		BodyBytes:  e.BodyBytes,
		RequestID:  e.RequestID,
		ReceivedAt: e.ReceivedAt,
	}
}
