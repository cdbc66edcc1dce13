// Package engine exposes the Superfeedr operations an application performs on
// its feed records, validating each record before anything goes on the wire.
package engine

import (
	"context"
	"log/slog"

	"github.com/mattjoyce/pushbridge/internal/superfeedr"
)

//go:generate mockgen -destination=mocks/mock_api.go -package=mocks github.com/mattjoyce/pushbridge/internal/engine API

// API is the remote Superfeedr surface; *superfeedr.Client implements it.
type API interface {
	List(ctx context.Context, opts superfeedr.Options) (*superfeedr.Response, error)
	Replay(ctx context.Context, topicURL, id string, opts superfeedr.Options) (*superfeedr.Response, error)
	RetrieveByTopicURL(ctx context.Context, topicURL string, opts superfeedr.Options) (*superfeedr.Response, error)
	Search(ctx context.Context, query string, opts superfeedr.Options) (*superfeedr.Response, error)
	Subscribe(ctx context.Context, topicURL, id string, opts superfeedr.Options) (*superfeedr.Response, error)
	Unsubscribe(ctx context.Context, topicURL, id string, opts superfeedr.Options) (*superfeedr.Response, error)
}

// Feed is a record usable with every operation.
type Feed interface {
	HasURL
	HasID
}

// SecretFeed is a record that can be subscribed.
type SecretFeed interface {
	Feed
	HasSecret
}

// Engine runs validated operations against an API.
type Engine struct {
	api    API
	logger *slog.Logger
}

func New(api API, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{api: api, logger: logger}
}

// List returns the account's subscriptions.
func (e *Engine) List(ctx context.Context, opts superfeedr.Options) (*superfeedr.Response, error) {
	return e.api.List(ctx, opts.Clone())
}

// Replay asks the hub to re-deliver recent entries of inst.
func (e *Engine) Replay(ctx context.Context, inst Feed, opts superfeedr.Options) (*superfeedr.Response, error) {
	if err := ValidateURL(inst); err != nil {
		return nil, err
	}
	if err := ValidateID(inst); err != nil {
		return nil, err
	}
	e.logger.Debug("replay", "feed_id", inst.FeedID(), "url", inst.FeedURL())
	return e.api.Replay(ctx, inst.FeedURL(), inst.FeedID(), opts.Clone())
}

// Retrieve fetches past entries of inst as JSON.
func (e *Engine) Retrieve(ctx context.Context, inst HasURL, opts superfeedr.Options) (*superfeedr.Response, error) {
	if err := ValidateURL(inst); err != nil {
		return nil, err
	}
	o := opts.Clone()
	o["format"] = "json"
	e.logger.Debug("retrieve", "url", inst.FeedURL())
	return e.api.RetrieveByTopicURL(ctx, inst.FeedURL(), o)
}

// Search queries the account's subscriptions as JSON.
func (e *Engine) Search(ctx context.Context, query string, opts superfeedr.Options) (*superfeedr.Response, error) {
	o := opts.Clone()
	o["format"] = "json"
	return e.api.Search(ctx, query, o)
}

// Subscribe registers inst with the hub, sending its secret so notifications
// arrive signed.
func (e *Engine) Subscribe(ctx context.Context, inst SecretFeed, opts superfeedr.Options) (*superfeedr.Response, error) {
	if err := ValidateURL(inst); err != nil {
		return nil, err
	}
	if err := ValidateID(inst); err != nil {
		return nil, err
	}
	if err := ValidateSecret(inst); err != nil {
		return nil, err
	}
	o := opts.Clone()
	o["format"] = "json"
	o["secret"] = inst.FeedSecret()
	e.logger.Info("subscribe", "feed_id", inst.FeedID(), "url", inst.FeedURL())
	return e.api.Subscribe(ctx, inst.FeedURL(), inst.FeedID(), o)
}

// Unsubscribe removes inst's subscription.
func (e *Engine) Unsubscribe(ctx context.Context, inst Feed, opts superfeedr.Options) (*superfeedr.Response, error) {
	if err := ValidateURL(inst); err != nil {
		return nil, err
	}
	if err := ValidateID(inst); err != nil {
		return nil, err
	}
	e.logger.Info("unsubscribe", "feed_id", inst.FeedID(), "url", inst.FeedURL())
	return e.api.Unsubscribe(ctx, inst.FeedURL(), inst.FeedID(), opts.Clone())
}

var _ API = (*superfeedr.Client)(nil)
