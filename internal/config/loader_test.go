package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr bool
		checkFn func(t *testing.T, cfg *Config)
	}{
		{
			name: "empty config gets defaults",
			yaml: "{}\n",
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Service.Name != "pushbridge" {
					t.Errorf("service.name = %q", cfg.Service.Name)
				}
				if cfg.Service.LogLevel != "info" || cfg.Service.LogFormat != "json" {
					t.Error("default logging not applied")
				}
				if cfg.Webhook.BasePath != "/superfeedr/feed" {
					t.Errorf("webhook.base_path = %q", cfg.Webhook.BasePath)
				}
				if cfg.Webhook.SignatureHeader != "X-Hub-Signature" {
					t.Errorf("webhook.signature_header = %q", cfg.Webhook.SignatureHeader)
				}
				if cfg.Superfeedr.Endpoint != "https://push.superfeedr.com/" {
					t.Errorf("superfeedr.endpoint = %q", cfg.Superfeedr.Endpoint)
				}
				if cfg.Superfeedr.Timeout != 30*time.Second {
					t.Errorf("superfeedr.timeout = %v", cfg.Superfeedr.Timeout)
				}
			},
		},
		{
			name: "full config",
			yaml: `
service:
  name: feeds
  log_level: debug
  log_format: text
  delivery_retention: 72h
state:
  path: ./test.db
webhook:
  listen: 0.0.0.0:9000
  base_path: /push
  max_body_size: 2MB
superfeedr:
  login: demo
  token: abc
  callback_url: https://example.com/push
  timeout: 5s
`,
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Service.DeliveryRetention != 72*time.Hour {
					t.Errorf("delivery_retention = %v", cfg.Service.DeliveryRetention)
				}
				if cfg.State.Path != "./test.db" {
					t.Error("state.path not parsed")
				}
				if cfg.Webhook.Listen != "0.0.0.0:9000" || cfg.Webhook.MaxBodySize != "2MB" {
					t.Error("webhook section not parsed")
				}
				if cfg.Superfeedr.Login != "demo" || cfg.Superfeedr.Token != "abc" {
					t.Error("superfeedr credentials not parsed")
				}
				if cfg.Superfeedr.Timeout != 5*time.Second {
					t.Errorf("superfeedr.timeout = %v", cfg.Superfeedr.Timeout)
				}
			},
		},
		{
			name: "env var interpolation",
			yaml: `
state:
  path: ${PB_DB_PATH}
superfeedr:
  login: ${PB_LOGIN}
  token: ${PB_TOKEN}
`,
			env: map[string]string{
				"PB_DB_PATH": "/tmp/test.db",
				"PB_LOGIN":   "demo",
				"PB_TOKEN":   "secret123",
			},
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.State.Path != "/tmp/test.db" {
					t.Errorf("env var not interpolated in state.path: %s", cfg.State.Path)
				}
				if cfg.Superfeedr.Token != "secret123" {
					t.Error("env var not interpolated in superfeedr.token")
				}
			},
		},
		{
			name: "missing env var in token fails validation",
			yaml: `
superfeedr:
  token: ${PB_MISSING_TOKEN}
`,
			wantErr: true,
		},
		{
			name: "invalid log level",
			yaml: `
service:
  log_level: invalid
`,
			wantErr: true,
		},
		{
			name: "invalid log format",
			yaml: `
service:
  log_format: xml
`,
			wantErr: true,
		},
		{
			name: "relative base path",
			yaml: `
webhook:
  base_path: push
`,
			wantErr: true,
		},
		{
			name: "callback url must be http",
			yaml: `
superfeedr:
  callback_url: ftp://example.com/push
`,
			wantErr: true,
		},
		{
			name: "endpoint must be absolute",
			yaml: `
superfeedr:
  endpoint: not-a-url
`,
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			yaml:    "service: [\n",
			wantErr: true,
		},
		{
			name: "api with scoped tokens",
			yaml: `
api:
  listen: 127.0.0.1:8090
  tokens:
    - token: ${PB_API_TOKEN}
      scopes: [feeds:ro, events:ro]
`,
			env: map[string]string{"PB_API_TOKEN": "t0k"},
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.API.Listen != "127.0.0.1:8090" || len(cfg.API.Tokens) != 1 {
					t.Fatalf("api = %+v", cfg.API)
				}
				if cfg.API.Tokens[0].Token != "t0k" || len(cfg.API.Tokens[0].Scopes) != 2 {
					t.Errorf("token = %+v", cfg.API.Tokens[0])
				}
			},
		},
		{
			name: "api cors origins",
			yaml: `
api:
  listen: 127.0.0.1:8090
  tokens:
    - token: abc
  cors_origins: [https://dash.example]
`,
			checkFn: func(t *testing.T, cfg *Config) {
				if len(cfg.API.CORSOrigins) != 1 || cfg.API.CORSOrigins[0] != "https://dash.example" {
					t.Errorf("cors_origins = %v", cfg.API.CORSOrigins)
				}
			},
		},
		{
			name:    "api listen without tokens",
			yaml:    "api:\n  listen: 127.0.0.1:8090\n",
			wantErr: true,
		},
		{
			name: "api unknown scope",
			yaml: `
api:
  listen: 127.0.0.1:8090
  tokens:
    - token: abc
      scopes: [jobs:rw]
`,
			wantErr: true,
		},
		{
			name: "api unresolved token var",
			yaml: `
api:
  listen: 127.0.0.1:8090
  tokens:
    - token: ${PB_UNSET_API_TOKEN}
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.yaml), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			cfg, err := Load(configPath)

			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && tt.checkFn != nil {
				tt.checkFn(t, cfg)
			}
		})
	}
}

func TestLoadDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte("service:\n  name: from-dir\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load(dir) failed: %v", err)
	}
	if cfg.Service.Name != "from-dir" {
		t.Errorf("service.name = %q, want from-dir", cfg.Service.Name)
	}
}

func TestLoadIncludesMerge(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.yaml"), `
include:
  - secrets/superfeedr.yaml
service:
  name: base
superfeedr:
  login: base-login
`)
	writeFile(t, filepath.Join(tmpDir, "secrets", "superfeedr.yaml"), `
superfeedr:
  login: override
  token: tok
`)

	cfg, err := Load(filepath.Join(tmpDir, "config.yaml"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Superfeedr.Login != "override" {
		t.Errorf("login = %q, want override", cfg.Superfeedr.Login)
	}
	if cfg.Superfeedr.Token != "tok" {
		t.Errorf("token = %q, want tok", cfg.Superfeedr.Token)
	}
	if cfg.Service.Name != "base" {
		t.Errorf("service.name = %q, want base", cfg.Service.Name)
	}

	files, err := DiscoverAllConfigFiles(tmpDir)
	if err != nil {
		t.Fatalf("DiscoverAllConfigFiles() failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2: %v", len(files), files)
	}
}

func TestLoadIncludeCycle(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.yaml"), "include:\n  - a.yaml\n")
	writeFile(t, filepath.Join(tmpDir, "a.yaml"), "include:\n  - config.yaml\n")

	_, err := Load(tmpDir)
	if err == nil || !strings.Contains(err.Error(), "circular dependency") {
		t.Fatalf("expected circular dependency error, got %v", err)
	}
}

func TestLoadIncludeMissing(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.yaml"), "include:\n  - nope.yaml\n")

	_, err := Load(tmpDir)
	if err == nil || !strings.Contains(err.Error(), "file not found") {
		t.Fatalf("expected file not found error, got %v", err)
	}
}

func TestRequireCredentials(t *testing.T) {
	if err := (SuperfeedrConfig{}).RequireCredentials(); err == nil {
		t.Error("expected error without login")
	}
	if err := (SuperfeedrConfig{Login: "demo"}).RequireCredentials(); err == nil {
		t.Error("expected error without token")
	}
	if err := (SuperfeedrConfig{Login: "demo", Token: "t"}).RequireCredentials(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestInterpolateEnv(t *testing.T) {
	tests := []struct {
		name  string
		input string
		env   map[string]string
		want  string
	}{
		{
			name:  "simple replacement",
			input: "path: ${PB_HOME}/data",
			env:   map[string]string{"PB_HOME": "/users/test"},
			want:  "path: /users/test/data",
		},
		{
			name:  "multiple vars",
			input: "${PB_USER}:${PB_PASS}@${PB_HOST}",
			env: map[string]string{
				"PB_USER": "admin",
				"PB_PASS": "secret",
				"PB_HOST": "localhost",
			},
			want: "admin:secret@localhost",
		},
		{
			name:  "undefined var unchanged",
			input: "key: ${PB_UNDEFINED}",
			env:   map[string]string{},
			want:  "key: ${PB_UNDEFINED}",
		},
		{
			name:  "no vars",
			input: "plain text",
			env:   map[string]string{},
			want:  "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got := interpolateEnv(tt.input)
			if got != tt.want {
				t.Errorf("interpolateEnv() = %q, want %q", got, tt.want)
			}
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
