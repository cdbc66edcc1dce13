package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mattjoyce/pushbridge/internal/delivery"
	"github.com/mattjoyce/pushbridge/internal/feed"
)

// maxListLimit caps the ?limit= query parameter.
const maxListLimit = 1000

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	feeds, err := s.feeds.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list feeds", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list feeds")
		return
	}

	resp := HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Feeds:         len(feeds),
	}
	if s.events != nil {
		resp.Subscribers = s.events.Subscribers()
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleListFeeds handles GET /feeds.
func (s *Server) handleListFeeds(w http.ResponseWriter, r *http.Request) {
	recs, err := s.feeds.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list feeds", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list feeds")
		return
	}

	resp := FeedListResponse{Feeds: make([]FeedResponse, 0, len(recs))}
	for _, rec := range recs {
		resp.Feeds = append(resp.Feeds, feedResponse(rec))
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleGetFeed handles GET /feeds/{feedID}.
func (s *Server) handleGetFeed(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupFeed(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, feedResponse(rec))
}

// handleListNotifications handles GET /feeds/{feedID}/notifications?limit=N.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.parseLimit(w, r, feed.DefaultNotificationLimit)
	if !ok {
		return
	}
	rec, ok := s.lookupFeed(w, r)
	if !ok {
		return
	}

	notes, err := s.feeds.Notifications(r.Context(), rec.ID, limit)
	if err != nil {
		s.logger.Error("failed to list notifications", "feed_id", rec.ID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}

	resp := NotificationListResponse{FeedID: rec.ID, Notifications: make([]NotificationResponse, 0, len(notes))}
	for _, n := range notes {
		resp.Notifications = append(resp.Notifications, NotificationResponse{
			ID:         n.ID,
			Params:     n.Params,
			Body:       string(n.Body),
			ReceivedAt: n.ReceivedAt,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleListDeliveries handles GET /deliveries?limit=N.
func (s *Server) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.parseLimit(w, r, delivery.DefaultLimit)
	if !ok {
		return
	}

	entries, err := s.deliveries.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list deliveries", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list deliveries")
		return
	}

	resp := DeliveryListResponse{Deliveries: make([]DeliveryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Deliveries = append(resp.Deliveries, deliveryResponse(e))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) lookupFeed(w http.ResponseWriter, r *http.Request) (*feed.Record, bool) {
	feedID := chi.URLParam(r, "feedID")
	rec, err := s.feeds.Get(r.Context(), feedID)
	if errors.Is(err, feed.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "feed not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("failed to load feed", "feed_id", feedID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load feed")
		return nil, false
	}
	return rec, true
}

func (s *Server) parseLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxListLimit {
		s.writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and "+strconv.Itoa(maxListLimit))
		return 0, false
	}
	return n, true
}

// respondJSON is a helper to write JSON responses
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
