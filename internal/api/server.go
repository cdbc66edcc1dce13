// Package api serves a read-only admin HTTP API over the feed registry, the
// delivery log and the live delivery event stream.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/mattjoyce/pushbridge/internal/auth"
	"github.com/mattjoyce/pushbridge/internal/config"
	"github.com/mattjoyce/pushbridge/internal/delivery"
	"github.com/mattjoyce/pushbridge/internal/events"
	"github.com/mattjoyce/pushbridge/internal/feed"
)

// FeedSource is the read side of the feed registry.
type FeedSource interface {
	List(ctx context.Context) ([]*feed.Record, error)
	Get(ctx context.Context, id string) (*feed.Record, error)
	Notifications(ctx context.Context, feedID string, limit int) ([]*feed.Notification, error)
}

// DeliverySource is the read side of the delivery log.
type DeliverySource interface {
	Recent(ctx context.Context, limit int) ([]delivery.Entry, error)
}

// Config holds API server configuration
type Config struct {
	Listen      string
	Tokens      []auth.TokenConfig
	CORSOrigins []string
}

// FromGlobalConfig converts the api section of the service config.
func FromGlobalConfig(ac *config.APIConfig) Config {
	return Config{Listen: ac.Listen, Tokens: auth.TokensFromConfig(ac.Tokens), CORSOrigins: ac.CORSOrigins}
}

// Server represents the HTTP API server
type Server struct {
	config     Config
	feeds      FeedSource
	deliveries DeliverySource
	events     *events.Hub
	logger     *slog.Logger
	server     *http.Server
	startedAt  time.Time
}

// New creates a new API server instance. hub may be nil, which disables /events.
func New(config Config, feeds FeedSource, deliveries DeliverySource, hub *events.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:     config,
		feeds:      feeds,
		deliveries: deliveries,
		events:     hub,
		logger:     logger,
		startedAt:  time.Now(),
	}
}

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	router := s.setupRoutes()
	if len(s.config.CORSOrigins) == 0 {
		return router
	}
	return cors.New(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Last-Event-ID"},
		MaxAge:         600,
	}).Handler(router)
}

// Start listens on the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled. Open /events streams are ended
// as soon as shutdown begins.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	streamCtx, endStreams := context.WithCancel(context.Background())
	defer endStreams()

	s.server = &http.Server{
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: /events streams stay open.
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return streamCtx },
	}
	s.server.RegisterOnShutdown(endStreams)

	s.logger.Info("API server starting", "listen", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/openapi.json", s.handleOpenAPI)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.With(s.requireScopes(auth.ScopeFeedsRead)).Get("/feeds", s.handleListFeeds)
		r.With(s.requireScopes(auth.ScopeFeedsRead)).Get("/feeds/{feedID}", s.handleGetFeed)
		r.With(s.requireScopes(auth.ScopeFeedsRead)).Get("/feeds/{feedID}/notifications", s.handleListNotifications)
		r.With(s.requireScopes(auth.ScopeDeliveriesRead)).Get("/deliveries", s.handleListDeliveries)
		r.With(s.requireScopes(auth.ScopeEventsRead)).Get("/events", s.handleEvents)
	})

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
