package webhook

import (
	"context"
	"errors"
	"time"
)

//go:generate mockgen -destination=mocks/mock_webhook.go -package=mocks github.com/mattjoyce/pushbridge/internal/webhook FeedFinder,DeliveryRecorder

// ErrFeedNotFound is returned by a FeedFinder when no record matches the identifier.
var ErrFeedNotFound = errors.New("feed not found")

// Feed is the part of an application feed record the receiver needs.
type Feed interface {
	FeedID() string
	FeedSecret() string
}

// FeedFinder resolves the feed addressed by an inbound notification.
// Implementations return ErrFeedNotFound (possibly wrapped) for unknown identifiers.
type FeedFinder interface {
	FindFeed(ctx context.Context, id string) (Feed, error)
}

// DeliveryRecorder receives one Delivery per inbound notification, accepted or not.
type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, d Delivery) error
}

// MultiRecorder reports each delivery to every recorder in order. All
// recorders run; their errors are joined.
type MultiRecorder []DeliveryRecorder

func (m MultiRecorder) RecordDelivery(ctx context.Context, d Delivery) error {
	var errs []error
	for _, rec := range m {
		if rec == nil {
			continue
		}
		if err := rec.RecordDelivery(ctx, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Delivery describes the outcome of a single inbound notification.
type Delivery struct {
	FeedID     string
	Accepted   bool
	Reason     string
	BodyBytes  int
	RequestID  string
	ReceivedAt time.Time
}

// Config holds webhook receiver configuration.
type Config struct {
	Listen string `yaml:"listen"`

	// BasePath prefixes the notification route: POST {BasePath}/{feed_id}
	BasePath string `yaml:"base_path"`

	// SignatureHeader carries "algorithm=hexdigest" (default: X-Hub-Signature)
	SignatureHeader string `yaml:"signature_header"`

	// MaxBodySize is the maximum accepted request body size in bytes (default: 16MB)
	MaxBodySize int64 `yaml:"max_body_size,omitempty"`
}

// Default values
const (
	DefaultListen          = "127.0.0.1:8081"
	DefaultBasePath        = "/superfeedr/feed"
	DefaultSignatureHeader = "X-Hub-Signature"
	DefaultMaxBodySize     = 16 << 20

	// FeedIDParam is the route parameter holding the feed identifier.
	FeedIDParam = "feed_id"
)

// reservedParams are stripped before params reach application code.
var reservedParams = []string{"pubsubhubbub", FeedIDParam}

func (c Config) withDefaults() Config {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.SignatureHeader == "" {
		c.SignatureHeader = DefaultSignatureHeader
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = DefaultMaxBodySize
	}
	return c
}
