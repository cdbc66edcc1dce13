// Package events fans delivery outcomes out to live subscribers such as the
// admin API's server-sent event stream.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mattjoyce/pushbridge/internal/webhook"
)

// Event types published by the receiver.
const (
	TypeDeliveryAccepted = "delivery.accepted"
	TypeDeliveryRejected = "delivery.rejected"
)

type Event struct {
	ID   int64     `json:"id"`
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data []byte    `json:"data"` // JSON payload
}

// DeliveryPayload is the Data of delivery events.
type DeliveryPayload struct {
	FeedID     string    `json:"feed_id"`
	Accepted   bool      `json:"accepted"`
	Reason     string    `json:"reason,omitempty"`
	BodyBytes  int       `json:"body_bytes"`
	RequestID  string    `json:"request_id,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// Hub is an in-memory pub/sub with a small ring buffer for late clients.
type Hub struct {
	now func() time.Time

	// mu also orders publication: IDs reach subscribers ascending.
	mu     sync.Mutex
	nextID int64
	ring   []Event
	start  int
	size   int

	subs      map[int]chan Event
	nextSubID int
}

func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 100
	}
	return &Hub{
		now:  time.Now,
		ring: make([]Event, capacity),
		subs: make(map[int]chan Event),
	}
}

func (h *Hub) Publish(eventType string, data any) Event {
	payload := []byte("{}")
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			payload = b
		}
	}

	h.mu.Lock()
	h.nextID++
	ev := Event{
		ID:   h.nextID,
		Type: eventType,
		At:   h.now().UTC(),
		Data: payload,
	}
	h.pushLocked(ev)
	for _, ch := range h.subs {
		// Slow subscribers drop events.
		select {
		case ch <- ev:
		default:
		}
	}
	h.mu.Unlock()
	return ev
}

// RecordDelivery publishes d as a delivery event. It never fails.
func (h *Hub) RecordDelivery(_ context.Context, d webhook.Delivery) error {
	eventType := TypeDeliveryAccepted
	if !d.Accepted {
		eventType = TypeDeliveryRejected
	}
	h.Publish(eventType, DeliveryPayload{
		FeedID:     d.FeedID,
		Accepted:   d.Accepted,
		Reason:     d.Reason,
		BodyBytes:  d.BodyBytes,
		RequestID:  d.RequestID,
		ReceivedAt: d.ReceivedAt,
	})
	return nil
}

// Subscribe returns a channel of new events and a cancel func that closes it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSubID
	h.nextSubID++
	ch := make(chan Event, 64)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

// SnapshotSince returns buffered events with ID > lastID, oldest-first.
// If lastID is 0, the full ring buffer snapshot is returned.
func (h *Hub) SnapshotSince(lastID int64) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Event, 0, h.size)
	for i := 0; i < h.size; i++ {
		ev := h.ring[(h.start+i)%len(h.ring)]
		if lastID == 0 || ev.ID > lastID {
			out = append(out, ev)
		}
	}
	return out
}

// Subscribers reports how many live subscriptions exist.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) pushLocked(ev Event) {
	capacity := len(h.ring)
	if h.size < capacity {
		h.ring[(h.start+h.size)%capacity] = ev
		h.size++
		return
	}

	// Overwrite oldest.
	h.ring[h.start] = ev
	h.start = (h.start + 1) % capacity
}

var _ webhook.DeliveryRecorder = (*Hub)(nil)
