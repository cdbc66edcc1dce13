package config

import "time"

// Config represents the complete pushbridge configuration.
type Config struct {
	Include    []string         `yaml:"include,omitempty"`
	Service    ServiceConfig    `yaml:"service"`
	State      StateConfig      `yaml:"state"`
	Webhook    WebhookConfig    `yaml:"webhook"`
	Superfeedr SuperfeedrConfig `yaml:"superfeedr"`
	API        APIConfig        `yaml:"api,omitempty"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	// DeliveryRetention bounds how long delivery log rows are kept (0 keeps forever).
	DeliveryRetention time.Duration `yaml:"delivery_retention"`
}

// StateConfig defines state storage settings.
type StateConfig struct {
	Path string `yaml:"path"`
}

// WebhookConfig defines the notification receiver.
type WebhookConfig struct {
	Listen          string `yaml:"listen"`
	BasePath        string `yaml:"base_path"`
	SignatureHeader string `yaml:"signature_header"`
	MaxBodySize     string `yaml:"max_body_size"`
}

// SuperfeedrConfig defines access to the Superfeedr HTTP API.
type SuperfeedrConfig struct {
	Endpoint string `yaml:"endpoint"`
	Login    string `yaml:"login"`
	Token    string `yaml:"token"`
	// CallbackURL is the public URL of the webhook base path; the feed id is appended.
	CallbackURL string        `yaml:"callback_url"`
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"user_agent,omitempty"`
}

// APIConfig defines the read-only admin API. It is disabled when Listen is empty.
type APIConfig struct {
	Listen string     `yaml:"listen,omitempty"`
	Tokens []APIToken `yaml:"tokens,omitempty"`
	// CORSOrigins lists browser origins allowed to call the API ("*" for any).
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
}

// APIToken is a bearer token and the scopes it grants.
type APIToken struct {
	Token  string   `yaml:"token"`
	Scopes []string `yaml:"scopes,omitempty"`
}

// APIScopes lists the scopes an APIToken may carry.
var APIScopes = []string{"feeds:ro", "deliveries:ro", "events:ro", "*"}

// ChecksumManifest is the on-disk .checksums format.
type ChecksumManifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	Hashes      map[string]string `yaml:"hashes"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:              "pushbridge",
			LogLevel:          "info",
			LogFormat:         "json",
			DeliveryRetention: 30 * 24 * time.Hour,
		},
		State: StateConfig{
			Path: "./data/pushbridge.db",
		},
		Webhook: WebhookConfig{
			Listen:          "127.0.0.1:8081",
			BasePath:        "/superfeedr/feed",
			SignatureHeader: "X-Hub-Signature",
			MaxBodySize:     "16MB",
		},
		Superfeedr: SuperfeedrConfig{
			Endpoint: "https://push.superfeedr.com/",
			Timeout:  30 * time.Second,
		},
	}
}
