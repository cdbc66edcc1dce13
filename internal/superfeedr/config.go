package superfeedr

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mattjoyce/pushbridge/internal/config"
)

// Defaults.
const (
	DefaultEndpoint  = "https://push.superfeedr.com/"
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "pushbridge"
)

// ErrNoCallbackURL is returned by callback-bound operations when no callback URL is configured.
var ErrNoCallbackURL = errors.New("superfeedr: callback_url is not configured")

// Config holds API access settings.
type Config struct {
	Endpoint    string
	Login       string
	Token       string
	CallbackURL string
	Timeout     time.Duration
	UserAgent   string
}

// FromGlobalConfig converts the superfeedr section of the main config.
func FromGlobalConfig(cfg *config.SuperfeedrConfig) Config {
	if cfg == nil {
		return Config{}
	}
	return Config{
		Endpoint:    cfg.Endpoint,
		Login:       cfg.Login,
		Token:       cfg.Token,
		CallbackURL: cfg.CallbackURL,
		Timeout:     cfg.Timeout,
		UserAgent:   cfg.UserAgent,
	}
}

func (c Config) withDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}

func (c Config) validate() error {
	if c.Login == "" || c.Token == "" {
		return fmt.Errorf("superfeedr: login and token are required")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("superfeedr: endpoint must be an absolute http(s) URL (got %q)", c.Endpoint)
	}
	return nil
}

// CallbackFor joins the callback base and the escaped feed id.
func (c Config) CallbackFor(id string) (string, error) {
	if c.CallbackURL == "" {
		return "", ErrNoCallbackURL
	}
	return strings.TrimRight(c.CallbackURL, "/") + "/" + url.PathEscape(id), nil
}
