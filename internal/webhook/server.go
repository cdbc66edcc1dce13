package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server represents the webhook HTTP server.
type Server struct {
	config   Config
	finder   FeedFinder
	notifier Notifier
	recorder DeliveryRecorder
	logger   *slog.Logger
	server   *http.Server
	now      func() time.Time
}

// New creates a new webhook server instance.
func New(config Config, finder FeedFinder, notifier Notifier, logger *slog.Logger) *Server {
	config = config.withDefaults()
	config.BasePath = "/" + strings.Trim(config.BasePath, "/")

	return &Server{
		config:   config,
		finder:   finder,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// WithRecorder makes the server report every delivery outcome to rec.
func (s *Server) WithRecorder(rec DeliveryRecorder) *Server {
	s.recorder = rec
	return s
}

// Handler returns the configured router, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start starts the webhook HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("webhook server starting",
		"listen", s.config.Listen,
		"route", s.route(),
		"notifier", s.notifier.Arity().String(),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

func (s *Server) route() string {
	if s.config.BasePath == "/" {
		return "/{" + FeedIDParam + "}"
	}
	return s.config.BasePath + "/{" + FeedIDParam + "}"
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Post(s.route(), s.handleNotify)

	return r
}

// loggingMiddleware logs HTTP requests (excludes payloads).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("webhook request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleNotify verifies and dispatches a hub notification.
// The response is 200 whatever happens: a non-2xx would make the hub retry a
// payload we already decided to drop.
func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	feedID := chi.URLParam(r, FeedIDParam)

	feed, body, err := s.verify(r, feedID)
	if err != nil {
		s.ignore(r, feedID, len(body), err)
		w.WriteHeader(http.StatusOK)
		return
	}

	params := sanitizedParams(r)
	r.Body = io.NopCloser(bytes.NewReader(body))

	delivery := s.delivery(r, feedID, len(body))
	delivery.Accepted = true
	if err := s.notifier.notify(ctx, feed, params, body, r); err != nil {
		s.logger.Error("notified callback failed",
			"feed_id", feedID,
			"notifier", s.notifier.Arity().String(),
			"error", err,
		)
		delivery.Reason = "notified callback failed: " + err.Error()
	} else {
		s.logger.Debug("notification dispatched", "feed_id", feedID, "bytes", len(body))
	}
	s.record(ctx, delivery)

	w.WriteHeader(http.StatusOK)
}

// verify runs the ordered validation pipeline; the first failure wins.
func (s *Server) verify(r *http.Request, feedID string) (Feed, []byte, error) {
	ctx := r.Context()

	if !s.notifier.Defined() {
		return nil, nil, reject(ErrMissingNotifier, feedID,
			"Please make sure your feed type has a notified callback.")
	}

	feed, err := s.finder.FindFeed(ctx, feedID)
	if errors.Is(err, ErrFeedNotFound) || (err == nil && feed == nil) {
		return nil, nil, reject(ErrUnknownFeed, feedID, "Unknown feed#%s.", feedID)
	}
	if err != nil {
		rej := reject(ErrFeedLookup, feedID, "Could not load feed#%s.", feedID)
		rej.Err = err
		return nil, nil, rej
	}

	if len(r.Header.Values(s.config.SignatureHeader)) == 0 {
		return nil, nil, reject(ErrMissingSignature, feedID, "Missing signature.")
	}
	algo, digest := parseSignature(r.Header.Get(s.config.SignatureHeader))
	if algo != SignatureAlgorithm {
		return nil, nil, reject(ErrUnknownMechanism, feedID, "Unknown signature mechanism %s.", algo)
	}

	body, err := readBody(r.Body, s.config.MaxBodySize)
	if err != nil {
		if errors.Is(err, ErrPayloadTooLarge) {
			return nil, body, reject(ErrPayloadTooLarge, feedID,
				"Payload exceeds %d bytes (raise webhook.max_body_size).", s.config.MaxBodySize)
		}
		rej := reject(ErrUnreadableBody, feedID, "Could not read payload.")
		rej.Err = err
		return nil, body, rej
	}

	secret := feed.FeedSecret()
	if secret == "" {
		return nil, body, reject(ErrSignatureMismatch, feedID, "Non-matching signature (feed has no secret).")
	}
	if !signaturesMatch(computeSignature(body, secret), digest) {
		return nil, body, reject(ErrSignatureMismatch, feedID, "Non-matching signature.")
	}

	return feed, body, nil
}

func (s *Server) ignore(r *http.Request, feedID string, bodyBytes int, err error) {
	attrs := []any{
		"feed_id", feedID,
		"reason", err.Error(),
		"hint", "use retrieve to recover this update",
		"request_id", middleware.GetReqID(r.Context()),
	}
	if errors.Is(err, ErrPayloadTooLarge) {
		attrs = append(attrs, "max_body_size", s.config.MaxBodySize)
	}
	s.logger.Error("ignored notification payload", attrs...)

	delivery := s.delivery(r, feedID, bodyBytes)
	delivery.Reason = err.Error()
	s.record(r.Context(), delivery)
}

func (s *Server) delivery(r *http.Request, feedID string, bodyBytes int) Delivery {
	return Delivery{
		FeedID:     feedID,
		BodyBytes:  bodyBytes,
		RequestID:  middleware.GetReqID(r.Context()),
		ReceivedAt: s.now().UTC(),
	}
}

func (s *Server) record(ctx context.Context, d Delivery) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordDelivery(ctx, d); err != nil {
		s.logger.Warn("failed to record delivery", "feed_id", d.FeedID, "error", err)
	}
}

// readBody reads at most limit bytes; anything longer is ErrPayloadTooLarge.
func readBody(body io.Reader, limit int64) ([]byte, error) {
	if body == nil {
		return []byte{}, nil
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return data, err
	}
	if int64(len(data)) > limit {
		return data[:limit], ErrPayloadTooLarge
	}
	return data, nil
}

// sanitizedParams merges query and route params, minus the reserved keys.
func sanitizedParams(r *http.Request) url.Values {
	params := url.Values{}
	for key, values := range r.URL.Query() {
		params[key] = append([]string(nil), values...)
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		for i, key := range rctx.URLParams.Keys {
			if key == "" || key == "*" {
				continue
			}
			params.Set(key, rctx.URLParams.Values[i])
		}
	}
	for _, key := range reservedParams {
		params.Del(key)
	}
	return params
}
