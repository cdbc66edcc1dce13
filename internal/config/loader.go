package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file or a directory holding config.yaml.
// Files listed under include are merged in order, later files winning.
func Load(configPath string) (*Config, error) {
	return load(configPath, true)
}

func load(configPath string, verifyHashes bool) (*Config, error) {
	absPath, err := resolveConfigFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfigFile(absPath)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{absPath: true}
	if len(cfg.Include) > 0 {
		if err := loadIncludes(cfg, cfg.Include, filepath.Dir(absPath), visited); err != nil {
			return nil, err
		}
	}

	cfg = applyConfigDefaults(cfg)

	paths := make([]string, 0, len(visited))
	for path := range visited {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	if verifyHashes {
		if err := verifyLocked(paths); err != nil {
			return nil, err
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DiscoverConfigDir finds the config location by checking standard places.
// Priority order: $PUSHBRIDGE_CONFIG_DIR, ~/.config/pushbridge, /etc/pushbridge, ./config.yaml
func DiscoverConfigDir() (string, error) {
	if dir := os.Getenv("PUSHBRIDGE_CONFIG_DIR"); dir != "" {
		if _, err := os.Stat(dir); err == nil {
			return dir, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userConfigDir := filepath.Join(homeDir, ".config", "pushbridge")
		if _, err := os.Stat(userConfigDir); err == nil {
			return userConfigDir, nil
		}
	}

	systemConfigDir := "/etc/pushbridge"
	if _, err := os.Stat(systemConfigDir); err == nil {
		return systemConfigDir, nil
	}

	localConfigPath := "./config.yaml"
	if _, err := os.Stat(localConfigPath); err == nil {
		return localConfigPath, nil
	}

	return "", fmt.Errorf("no config found (checked: $PUSHBRIDGE_CONFIG_DIR, ~/.config/pushbridge, /etc/pushbridge, ./config.yaml)")
}

// DiscoverAllConfigFiles returns absolute paths to all configuration files in the include tree.
func DiscoverAllConfigFiles(configPath string) ([]string, error) {
	absPath, err := resolveConfigFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfigFile(absPath)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{absPath: true}
	if len(cfg.Include) > 0 {
		if err := loadIncludes(&Config{}, cfg.Include, filepath.Dir(absPath), visited); err != nil {
			return nil, err
		}
	}

	files := make([]string, 0, len(visited))
	for f := range visited {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

// resolveConfigFile turns a file or directory argument into the absolute config file path.
func resolveConfigFile(configPath string) (string, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return "", fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}
	return absPath, nil
}

// loadIncludes recursively loads and merges files from the include array.
// visited tracks loaded files to prevent cycles.
func loadIncludes(cfg *Config, includes []string, baseDir string, visited map[string]bool) error {
	for i, includePath := range includes {
		includePath = interpolateEnv(includePath)

		resolvedPath := includePath
		if !filepath.IsAbs(includePath) {
			resolvedPath = filepath.Join(baseDir, includePath)
		}

		absPath, err := filepath.Abs(resolvedPath)
		if err != nil {
			return fmt.Errorf("include[%d]: failed to resolve path %q: %w", i, includePath, err)
		}

		if visited[absPath] {
			return fmt.Errorf("include[%d]: circular dependency detected: %s", i, absPath)
		}

		if _, err := os.Stat(absPath); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("include[%d]: file not found: %s\n"+
					"Referenced from: %s\n"+
					"Hint: Check the path is correct and the file exists", i, absPath, baseDir)
			}
			return fmt.Errorf("include[%d]: failed to access file %s: %w", i, absPath, err)
		}

		visited[absPath] = true

		includedCfg, err := loadConfigFile(absPath)
		if err != nil {
			return fmt.Errorf("include[%d] (%s): %w", i, includePath, err)
		}

		deepMergeConfig(cfg, includedCfg)

		if len(includedCfg.Include) > 0 {
			if err := loadIncludes(cfg, includedCfg.Include, filepath.Dir(absPath), visited); err != nil {
				return err
			}
		}
	}

	return nil
}

// loadConfigFile loads and parses a single config file.
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	interpolated := interpolateEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &cfg, nil
}

// deepMergeConfig merges src into dst, with src taking precedence for non-zero values.
func deepMergeConfig(dst, src *Config) {
	if src.Service.Name != "" {
		dst.Service.Name = src.Service.Name
	}
	if src.Service.LogLevel != "" {
		dst.Service.LogLevel = src.Service.LogLevel
	}
	if src.Service.LogFormat != "" {
		dst.Service.LogFormat = src.Service.LogFormat
	}
	if src.Service.DeliveryRetention != 0 {
		dst.Service.DeliveryRetention = src.Service.DeliveryRetention
	}

	if src.State.Path != "" {
		dst.State.Path = src.State.Path
	}

	if src.Webhook.Listen != "" {
		dst.Webhook.Listen = src.Webhook.Listen
	}
	if src.Webhook.BasePath != "" {
		dst.Webhook.BasePath = src.Webhook.BasePath
	}
	if src.Webhook.SignatureHeader != "" {
		dst.Webhook.SignatureHeader = src.Webhook.SignatureHeader
	}
	if src.Webhook.MaxBodySize != "" {
		dst.Webhook.MaxBodySize = src.Webhook.MaxBodySize
	}

	if src.Superfeedr.Endpoint != "" {
		dst.Superfeedr.Endpoint = src.Superfeedr.Endpoint
	}
	if src.Superfeedr.Login != "" {
		dst.Superfeedr.Login = src.Superfeedr.Login
	}
	if src.Superfeedr.Token != "" {
		dst.Superfeedr.Token = src.Superfeedr.Token
	}
	if src.Superfeedr.CallbackURL != "" {
		dst.Superfeedr.CallbackURL = src.Superfeedr.CallbackURL
	}
	if src.Superfeedr.Timeout != 0 {
		dst.Superfeedr.Timeout = src.Superfeedr.Timeout
	}
	if src.Superfeedr.UserAgent != "" {
		dst.Superfeedr.UserAgent = src.Superfeedr.UserAgent
	}

	if src.API.Listen != "" {
		dst.API.Listen = src.API.Listen
	}
	if len(src.API.Tokens) > 0 {
		dst.API.Tokens = src.API.Tokens
	}
	if len(src.API.CORSOrigins) > 0 {
		dst.API.CORSOrigins = src.API.CORSOrigins
	}
}

// applyConfigDefaults merges default values into config where not explicitly set.
func applyConfigDefaults(cfg *Config) *Config {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = defaults.Service.LogFormat
	}
	if cfg.Service.DeliveryRetention == 0 {
		cfg.Service.DeliveryRetention = defaults.Service.DeliveryRetention
	}

	if cfg.State.Path == "" {
		cfg.State.Path = defaults.State.Path
	}

	if cfg.Webhook.Listen == "" {
		cfg.Webhook.Listen = defaults.Webhook.Listen
	}
	if cfg.Webhook.BasePath == "" {
		cfg.Webhook.BasePath = defaults.Webhook.BasePath
	}
	if cfg.Webhook.SignatureHeader == "" {
		cfg.Webhook.SignatureHeader = defaults.Webhook.SignatureHeader
	}
	if cfg.Webhook.MaxBodySize == "" {
		cfg.Webhook.MaxBodySize = defaults.Webhook.MaxBodySize
	}

	if cfg.Superfeedr.Endpoint == "" {
		cfg.Superfeedr.Endpoint = defaults.Superfeedr.Endpoint
	}
	if cfg.Superfeedr.Timeout == 0 {
		cfg.Superfeedr.Timeout = defaults.Superfeedr.Timeout
	}

	return cfg
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}

		// Left in place; validate reports it where it matters.
		return match
	})
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}

	if cfg.Service.LogFormat != "json" && cfg.Service.LogFormat != "text" {
		return fmt.Errorf("service.log_format must be one of: json, text (got %q)", cfg.Service.LogFormat)
	}

	if cfg.Service.DeliveryRetention < 0 {
		return fmt.Errorf("service.delivery_retention must not be negative")
	}

	if cfg.State.Path == "" {
		return fmt.Errorf("state.path is required")
	}

	if !strings.HasPrefix(cfg.Webhook.BasePath, "/") {
		return fmt.Errorf("webhook.base_path must start with '/' (got %q)", cfg.Webhook.BasePath)
	}

	if cfg.Superfeedr.Timeout < 0 {
		return fmt.Errorf("superfeedr.timeout must not be negative")
	}

	if err := checkHTTPURL("superfeedr.endpoint", cfg.Superfeedr.Endpoint); err != nil {
		return err
	}
	if cfg.Superfeedr.CallbackURL != "" {
		if err := checkHTTPURL("superfeedr.callback_url", cfg.Superfeedr.CallbackURL); err != nil {
			return err
		}
	}

	// Secrets must not silently carry a literal ${VAR} to the remote API.
	for field, value := range map[string]string{
		"superfeedr.login": cfg.Superfeedr.Login,
		"superfeedr.token": cfg.Superfeedr.Token,
	} {
		if matches := envVarPattern.FindStringSubmatch(value); len(matches) > 1 {
			return fmt.Errorf("%s: environment variable ${%s} is not set", field, matches[1])
		}
	}

	return validateAPI(cfg.API)
}

func validateAPI(api APIConfig) error {
	if api.Listen == "" {
		return nil
	}
	if len(api.Tokens) == 0 {
		return fmt.Errorf("api.tokens: at least one token is required when api.listen is set")
	}
	known := make(map[string]bool, len(APIScopes))
	for _, s := range APIScopes {
		known[s] = true
	}
	for i, t := range api.Tokens {
		if strings.TrimSpace(t.Token) == "" {
			return fmt.Errorf("api.tokens[%d].token is empty", i)
		}
		if matches := envVarPattern.FindStringSubmatch(t.Token); len(matches) > 1 {
			return fmt.Errorf("api.tokens[%d].token: environment variable ${%s} is not set", i, matches[1])
		}
		for _, scope := range t.Scopes {
			if !known[scope] {
				return fmt.Errorf("api.tokens[%d]: unknown scope %q (allowed: %s)", i, scope, strings.Join(APIScopes, ", "))
			}
		}
	}
	return nil
}

// RequireCredentials reports whether the Superfeedr section can drive API calls.
func (s SuperfeedrConfig) RequireCredentials() error {
	if s.Login == "" {
		return fmt.Errorf("superfeedr.login is required")
	}
	if s.Token == "" {
		return fmt.Errorf("superfeedr.token is required")
	}
	return nil
}

func checkHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid URL %q: %w", field, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL (got %q)", field, raw)
	}
	return nil
}
