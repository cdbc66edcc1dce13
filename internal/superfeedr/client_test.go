package superfeedr

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/pushbridge/internal/config"
	"github.com/mattjoyce/pushbridge/internal/log"
)

type captured struct {
	method string
	fields url.Values
	user   string
	pass   string
	header http.Header
}

// newTestClient returns a client wired to a fake API and an accessor for the
// last request it received.
func newTestClient(t *testing.T, status int, body string) (*Client, func() captured) {
	t.Helper()

	var (
		mu   sync.Mutex
		last captured
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		user, pass, _ := r.BasicAuth()
		mu.Lock()
		last = captured{method: r.Method, fields: r.Form, user: user, pass: pass, header: r.Header.Clone()}
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	client, err := New(Config{
		Endpoint:    srv.URL + "/",
		Login:       "demo",
		Token:       "tok",
		CallbackURL: "https://app.example.com/superfeedr/feed/",
	}, srv.Client(), log.Discard())
	require.NoError(t, err)
	return client, func() captured {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func TestSubscribe(t *testing.T) {
	t.Parallel()
	client, got := newTestClient(t, http.StatusNoContent, "")

	opts := Options{"format": "json", "secret": "s3cr3t", "retrieve": "true"}
	res, err := client.Subscribe(context.Background(), "https://x/feed", "42", opts)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Nil(t, res.Data)

	assert.Equal(t, http.MethodPost, got().method)
	assert.Equal(t, "demo", got().user)
	assert.Equal(t, "tok", got().pass)
	assert.Equal(t, "subscribe", got().fields.Get("hub.mode"))
	assert.Equal(t, "https://x/feed", got().fields.Get("hub.topic"))
	assert.Equal(t, "https://app.example.com/superfeedr/feed/42", got().fields.Get("hub.callback"))
	assert.Equal(t, "s3cr3t", got().fields.Get("hub.secret"))
	assert.Equal(t, "sync", got().fields.Get("hub.verify"))
	assert.Equal(t, "json", got().fields.Get("format"))
	assert.Equal(t, "true", got().fields.Get("retrieve"))
	assert.Empty(t, got().fields.Get("secret"))
	assert.Equal(t, DefaultUserAgent, got().header.Get("User-Agent"))
}

func TestSubscribeVerifyOverride(t *testing.T) {
	t.Parallel()
	client, got := newTestClient(t, http.StatusAccepted, "")

	_, err := client.Subscribe(context.Background(), "https://x/feed", "42", Options{"verify": "async"})
	require.NoError(t, err)
	assert.Equal(t, "async", got().fields.Get("hub.verify"))
}

func TestUnsubscribeAndReplay(t *testing.T) {
	t.Parallel()
	client, got := newTestClient(t, http.StatusOK, "")

	_, err := client.Unsubscribe(context.Background(), "https://x/feed", "a b", nil)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, got().method)
	assert.Equal(t, "unsubscribe", got().fields.Get("hub.mode"))
	assert.Equal(t, "https://app.example.com/superfeedr/feed/a%20b", got().fields.Get("hub.callback"))

	_, err = client.Replay(context.Background(), "https://x/feed", "42", nil)
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, got().method)
	assert.Equal(t, "replay", got().fields.Get("hub.mode"))
	assert.Equal(t, "https://x/feed", got().fields.Get("hub.topic"))
}

func TestRetrieveDecodesJSON(t *testing.T) {
	t.Parallel()
	client, got := newTestClient(t, http.StatusOK, `{"items":[{"id":"1"}]}`)

	res, err := client.RetrieveByTopicURL(context.Background(), "https://x/feed", Options{"format": "json", "count": "5"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, got().method)
	assert.Equal(t, "retrieve", got().fields.Get("hub.mode"))
	assert.Equal(t, "5", got().fields.Get("count"))
	assert.Equal(t, "application/json", got().header.Get("Accept"))

	data, ok := res.Data.(map[string]any)
	require.True(t, ok, "Data = %#v", res.Data)
	assert.Len(t, data["items"], 1)
}

func TestRetrieveWithoutJSONKeepsRawBody(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t, http.StatusOK, "<feed/>")

	res, err := client.RetrieveByTopicURL(context.Background(), "https://x/feed", nil)
	require.NoError(t, err)
	assert.Nil(t, res.Data)
	assert.Equal(t, "<feed/>", string(res.Body))
}

func TestListAndSearch(t *testing.T) {
	t.Parallel()
	client, got := newTestClient(t, http.StatusOK, "[]")

	_, err := client.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "list", got().fields.Get("hub.mode"))
	assert.Equal(t, "1", got().fields.Get("page"))

	_, err = client.List(context.Background(), Options{"page": "3", "by_page": "50"})
	require.NoError(t, err)
	assert.Equal(t, "3", got().fields.Get("page"))
	assert.Equal(t, "50", got().fields.Get("by_page"))

	_, err = client.Search(context.Background(), "golang", Options{"format": "json"})
	require.NoError(t, err)
	assert.Equal(t, "search", got().fields.Get("hub.mode"))
	assert.Equal(t, "golang", got().fields.Get("query"))
}

func TestAPIError(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t, http.StatusUnprocessableEntity, "bad topic\n")

	_, err := client.Subscribe(context.Background(), "https://x/feed", "42", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "err = %v", err)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, ModeSubscribe, apiErr.Mode)
	assert.Equal(t, "superfeedr subscribe: HTTP 422: bad topic", apiErr.Error())
}

func TestResponseBodyLimit(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t, http.StatusOK, strings.Repeat("x", 64))
	client.MaxResponseBodyBytes = 16

	_, err := client.List(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds limit")
}

func TestInvalidJSONIsReported(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t, http.StatusOK, "not json")

	res, err := client.Search(context.Background(), "q", Options{"format": "json"})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "not json", string(res.Body))
}

func TestCallbackURLRequired(t *testing.T) {
	t.Parallel()

	client, err := New(Config{Login: "demo", Token: "tok"}, nil, nil)
	require.NoError(t, err)

	_, err = client.Subscribe(context.Background(), "https://x/feed", "42", nil)
	assert.ErrorIs(t, err, ErrNoCallbackURL)
}

func TestNewValidates(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, nil, nil)
	assert.Error(t, err)

	_, err = New(Config{Login: "a", Token: "b", Endpoint: "push.superfeedr.com"}, nil, nil)
	assert.Error(t, err)
}

func TestFromGlobalConfig(t *testing.T) {
	t.Parallel()

	cfg := FromGlobalConfig(&config.SuperfeedrConfig{
		Endpoint: "https://push.superfeedr.com/", Login: "l", Token: "t", CallbackURL: "https://cb",
	})
	assert.Equal(t, "l", cfg.Login)
	assert.Equal(t, "https://cb", cfg.CallbackURL)
	assert.Equal(t, Config{}, FromGlobalConfig(nil))
}

func TestOptionsClone(t *testing.T) {
	t.Parallel()

	orig := Options{"a": "1"}
	cp := orig.Clone()
	cp["b"] = "2"
	assert.NotContains(t, orig, "b")
	assert.NotNil(t, Options(nil).Clone())
}
