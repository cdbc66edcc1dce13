package webhook

import (
	"context"
	"net/url"
	"testing"

	"github.com/mattjoyce/pushbridge/internal/config"
)

func TestParseMaxBodySize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "", want: DefaultMaxBodySize},
		{in: "2048", want: 2048},
		{in: "512KB", want: 512 * 1024},
		{in: "1mb", want: 1024 * 1024},
		{in: "2GB", want: 2 * 1024 * 1024 * 1024},
		{in: " 4 MB ", want: 4 * 1024 * 1024},
		{in: "0", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "lots", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseMaxBodySize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseMaxBodySize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseMaxBodySize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromGlobalConfig(t *testing.T) {
	cfg, err := FromGlobalConfig(&config.WebhookConfig{
		Listen:      "0.0.0.0:9000",
		BasePath:    "/push",
		MaxBodySize: "64KB",
	})
	if err != nil {
		t.Fatalf("FromGlobalConfig: %v", err)
	}

	if cfg.Listen != "0.0.0.0:9000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.BasePath != "/push" {
		t.Errorf("BasePath = %q", cfg.BasePath)
	}
	if cfg.SignatureHeader != DefaultSignatureHeader {
		t.Errorf("SignatureHeader = %q, want default", cfg.SignatureHeader)
	}
	if cfg.MaxBodySize != 64*1024 {
		t.Errorf("MaxBodySize = %d", cfg.MaxBodySize)
	}
}

func TestFromGlobalConfigErrors(t *testing.T) {
	if _, err := FromGlobalConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromGlobalConfig(&config.WebhookConfig{MaxBodySize: "huge"}); err == nil {
		t.Error("expected error for bad max_body_size")
	}
}

func TestNotifierArity(t *testing.T) {
	if (Notifier{}).Defined() {
		t.Error("zero Notifier should be undefined")
	}
	if NotifyParams(nil).Defined() {
		t.Error("nil callback should leave the Notifier undefined")
	}
	if got := NotifyWithBody(func(_ context.Context, _ Feed, _ url.Values, _ []byte) error { return nil }).Arity(); got != ArityBody {
		t.Errorf("Arity() = %v, want %v", got, ArityBody)
	}
	if ArityRequest.String() != "params+body+request" {
		t.Errorf("ArityRequest.String() = %q", ArityRequest.String())
	}
}
