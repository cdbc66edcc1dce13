// Package superfeedr is a thin client for the Superfeedr PubSubHubbub HTTP API.
package superfeedr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Hub modes understood by the API.
const (
	ModeSubscribe   = "subscribe"
	ModeUnsubscribe = "unsubscribe"
	ModeList        = "list"
	ModeRetrieve    = "retrieve"
	ModeReplay      = "replay"
	ModeSearch      = "search"
)

const defaultResponseBodyLimit int64 = 10 << 20 // 10 MiB

// Options are extra request fields. The keys "secret" and "verify" are sent
// as hub.secret and hub.verify; every other key is sent verbatim.
type Options map[string]string

// Clone returns a copy that can be modified without touching o.
func (o Options) Clone() Options {
	out := make(Options, len(o)+2)
	maps.Copy(out, o)
	return out
}

// HTTPDoer is the subset of *http.Client the client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response is a successful API reply.
type Response struct {
	StatusCode int
	Body       []byte
	// Data holds the decoded body when the request asked for format=json.
	Data any
}

// Client talks to the Superfeedr API with HTTP basic auth.
type Client struct {
	config               Config
	http                 HTTPDoer
	logger               *slog.Logger
	MaxResponseBodyBytes int64
}

// New builds a Client. A nil doer gets an *http.Client using config.Timeout.
func New(config Config, doer HTTPDoer, logger *slog.Logger) (*Client, error) {
	config = config.withDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	if doer == nil {
		doer = &http.Client{Timeout: config.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		config:               config,
		http:                 doer,
		logger:               logger,
		MaxResponseBodyBytes: defaultResponseBodyLimit,
	}, nil
}

// CallbackURL is where the hub delivers notifications for the feed id.
func (c *Client) CallbackURL(id string) (string, error) {
	return c.config.CallbackFor(id)
}

// Subscribe asks the hub to push topicURL updates to the callback for id.
func (c *Client) Subscribe(ctx context.Context, topicURL, id string, opts Options) (*Response, error) {
	callback, err := c.CallbackURL(id)
	if err != nil {
		return nil, err
	}
	fields := url.Values{
		"hub.topic":    {topicURL},
		"hub.callback": {callback},
		"hub.verify":   {"sync"},
	}
	return c.do(ctx, http.MethodPost, ModeSubscribe, fields, opts)
}

// Unsubscribe cancels the subscription of topicURL for id.
func (c *Client) Unsubscribe(ctx context.Context, topicURL, id string, opts Options) (*Response, error) {
	callback, err := c.CallbackURL(id)
	if err != nil {
		return nil, err
	}
	fields := url.Values{
		"hub.topic":    {topicURL},
		"hub.callback": {callback},
	}
	return c.do(ctx, http.MethodPost, ModeUnsubscribe, fields, opts)
}

// List pages through the account's subscriptions.
func (c *Client) List(ctx context.Context, opts Options) (*Response, error) {
	return c.do(ctx, http.MethodGet, ModeList, url.Values{"page": {"1"}}, opts)
}

// RetrieveByTopicURL fetches past entries of a subscribed topic.
func (c *Client) RetrieveByTopicURL(ctx context.Context, topicURL string, opts Options) (*Response, error) {
	return c.do(ctx, http.MethodGet, ModeRetrieve, url.Values{"hub.topic": {topicURL}}, opts)
}

// Replay asks the hub to re-send recent entries of topicURL to the callback for id.
func (c *Client) Replay(ctx context.Context, topicURL, id string, opts Options) (*Response, error) {
	callback, err := c.CallbackURL(id)
	if err != nil {
		return nil, err
	}
	fields := url.Values{
		"hub.topic":    {topicURL},
		"hub.callback": {callback},
	}
	return c.do(ctx, http.MethodGet, ModeReplay, fields, opts)
}

// Search queries the subscriptions of the account.
func (c *Client) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	return c.do(ctx, http.MethodGet, ModeSearch, url.Values{"query": {query}}, opts)
}

func (c *Client) do(ctx context.Context, method, mode string, fields url.Values, opts Options) (*Response, error) {
	fields.Set("hub.mode", mode)
	for key, value := range opts {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		fields.Set(fieldName(key), value)
	}

	endpoint, err := url.Parse(c.config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("superfeedr %s: invalid endpoint: %w", mode, err)
	}

	var body io.Reader
	if method == http.MethodGet {
		endpoint.RawQuery = fields.Encode()
	} else {
		body = strings.NewReader(fields.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("superfeedr %s: create request: %w", mode, err)
	}
	req.SetBasicAuth(c.config.Login, c.config.Token)
	req.Header.Set("User-Agent", c.config.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	asJSON := fields.Get("format") == "json"
	if asJSON {
		req.Header.Set("Accept", "application/json")
	}

	started := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("superfeedr %s: %w", mode, err)
	}
	defer res.Body.Close()

	limit := c.MaxResponseBodyBytes
	if limit <= 0 {
		limit = defaultResponseBodyLimit
	}
	raw, err := io.ReadAll(io.LimitReader(res.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("superfeedr %s: read response: %w", mode, err)
	}
	if int64(len(raw)) > limit {
		return nil, fmt.Errorf("superfeedr %s: response body exceeds limit of %d bytes", mode, limit)
	}

	c.logger.Debug("superfeedr request",
		"mode", mode,
		"method", method,
		"status", res.StatusCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &APIError{StatusCode: res.StatusCode, Mode: mode, Body: string(raw)}
	}

	out := &Response{StatusCode: res.StatusCode, Body: raw}
	if asJSON && len(strings.TrimSpace(string(raw))) > 0 {
		if err := json.Unmarshal(raw, &out.Data); err != nil {
			return out, fmt.Errorf("superfeedr %s: decode json response: %w", mode, err)
		}
	}
	return out, nil
}

func fieldName(key string) string {
	switch key {
	case "secret", "verify":
		return "hub." + key
	default:
		return key
	}
}
