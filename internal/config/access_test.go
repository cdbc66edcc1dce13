package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPath(t *testing.T) {
	cfg := Defaults()
	cfg.Superfeedr.Login = "alice"

	tests := []struct {
		name    string
		path    string
		want    any
		wantErr bool
	}{
		{name: "root service field", path: "service.name", want: "pushbridge"},
		{name: "nested superfeedr field", path: "superfeedr.login", want: "alice"},
		{name: "duration renders as string", path: "superfeedr.timeout", want: "30s"},
		{name: "whole section", path: "state", want: map[string]any{"path": "./data/pushbridge.db"}},
		{name: "missing key", path: "service.missing", wantErr: true},
		{name: "through a scalar", path: "service.name.deeper", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cfg.GetPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	writeFile(t, configPath, `
service:
  name: old-name
state:
  path: /tmp/pushbridge-test.db
`)

	t.Run("set existing field", func(t *testing.T) {
		target, err := SetPath(configPath, "service.name", "new-name")
		require.NoError(t, err)
		assert.Equal(t, configPath, target)

		reloaded, err := Load(configPath)
		require.NoError(t, err)
		assert.Equal(t, "new-name", reloaded.Service.Name)
	})

	t.Run("create nested field", func(t *testing.T) {
		_, err := SetPath(tmpDir, "superfeedr.callback_url", "https://bridge.example.com/hook")
		require.NoError(t, err)

		reloaded, err := Load(configPath)
		require.NoError(t, err)
		assert.Equal(t, "https://bridge.example.com/hook", reloaded.Superfeedr.CallbackURL)
	})

	t.Run("invalid value is rolled back", func(t *testing.T) {
		before, err := os.ReadFile(configPath)
		require.NoError(t, err)

		_, err = SetPath(configPath, "service.log_level", "chatty")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")

		after, err := os.ReadFile(configPath)
		require.NoError(t, err)
		assert.Equal(t, string(before), string(after))
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := SetPath(configPath, " ", "x")
		assert.Error(t, err)
	})
}

func TestSetPathOnLockedConfigNeedsRelock(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	writeFile(t, configPath, "state:\n  path: /tmp/pushbridge-test.db\n")

	_, err := Lock(configPath, false)
	require.NoError(t, err)

	_, err = SetPath(configPath, "service.log_level", "debug")
	require.NoError(t, err)

	_, err = Load(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config verification failed")

	_, err = Lock(configPath, false)
	require.NoError(t, err)
	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Service.LogLevel)
}

func TestGuessTag(t *testing.T) {
	assert.Equal(t, "!!bool", guessTag("true"))
	assert.Equal(t, "!!int", guessTag("-42"))
	assert.Equal(t, "!!str", guessTag("-"))
	assert.Equal(t, "!!str", guessTag("30s"))
}
