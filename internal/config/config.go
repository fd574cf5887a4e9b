// Package config manages amp configuration and the .amp directory structure.
// It handles loading, saving, and initializing the workspace configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	AmpDir     = ".amp"
	ConfigFile = "config"
	BoltFile   = "cache.db"
	SQLiteFile = "cache.sqlite"
)

// Environment variables that override file values.
const (
	EnvServerURL = "AMP_SERVER_URL"
	EnvToken     = "AMP_TOKEN"
	EnvProjectID = "AMP_PROJECT_ID"
)

// Defaults applied to fields left empty in the file.
const (
	DefaultServerURL      = "http://localhost:3000"
	DefaultPollInterval   = 2 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultCacheBackend   = "bolt"
	DefaultLogLevel       = "warn"
	DefaultLogFormat      = "text"
)

// Duration is a time.Duration written as a string ("2s", "500ms") in TOML.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	*d = Duration(v)
	return nil
}

// RetryConfig tunes retries of transient remote failures.
type RetryConfig struct {
	MaxRetries     int      `toml:"max_retries"`
	InitialBackoff Duration `toml:"initial_backoff"`
	MaxBackoff     Duration `toml:"max_backoff"`
}

// Config represents the amp configuration
type Config struct {
	ServerURL      string      `toml:"server_url"`
	Token          string      `toml:"token,omitempty"`
	ProjectID      string      `toml:"project_id,omitempty"`
	PollInterval   Duration    `toml:"poll_interval"`
	RequestTimeout Duration    `toml:"request_timeout"`
	CacheBackend   string      `toml:"cache_backend"`
	LogLevel       string      `toml:"log_level"`
	LogFormat      string      `toml:"log_format"`
	WebhookURLs    []string    `toml:"webhook_urls,omitempty"`
	Retry          RetryConfig `toml:"retry"`
	path           string      // path to .amp directory
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	if c.PollInterval <= 0 {
		c.PollInterval = Duration(DefaultPollInterval)
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = Duration(DefaultRequestTimeout)
	}
	if c.CacheBackend == "" {
		c.CacheBackend = DefaultCacheBackend
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.Retry.MaxRetries <= 0 {
		c.Retry.MaxRetries = 3
	}
	if c.Retry.InitialBackoff <= 0 {
		c.Retry.InitialBackoff = Duration(500 * time.Millisecond)
	}
	if c.Retry.MaxBackoff <= 0 {
		c.Retry.MaxBackoff = Duration(10 * time.Second)
	}
}

// ApplyEnv overrides file values with the AMP_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvServerURL); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvProjectID); v != "" {
		c.ProjectID = v
	}
}

// Validate checks values that defaults cannot fix.
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case "bolt", "sqlite", "none":
	default:
		return fmt.Errorf("invalid cache_backend %q (use bolt, sqlite or none)", c.CacheBackend)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q (use text or json)", c.LogFormat)
	}
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("invalid server_url %q", c.ServerURL)
	}
	return nil
}

// FindRoot finds the .amp directory by walking up from current directory
func FindRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		ampPath := filepath.Join(dir, AmpDir)
		if info, err := os.Stat(ampPath); err == nil && info.IsDir() {
			return ampPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not an amp workspace (or any parent up to root)")
		}
		dir = parent
	}
}

// Load loads the configuration from the .amp directory, then applies defaults
// and environment overrides.
func Load() (*Config, error) {
	ampPath, err := FindRoot()
	if err != nil {
		return nil, err
	}
	return LoadFrom(ampPath)
}

// LoadFrom loads the configuration of the given .amp directory.
func LoadFrom(ampPath string) (*Config, error) {
	configPath := filepath.Join(ampPath, ConfigFile)
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.path = ampPath
	cfg.applyDefaults()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	configPath := filepath.Join(c.path, ConfigFile)
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0600)
}

// Path returns the path to the .amp directory
func (c *Config) Path() string {
	return c.path
}

// CachePath returns the cache database path for the configured backend, or ""
// when caching is disabled or no .amp directory is known.
func (c *Config) CachePath() string {
	if c.path == "" {
		return ""
	}
	switch c.CacheBackend {
	case "bolt":
		return filepath.Join(c.path, BoltFile)
	case "sqlite":
		return filepath.Join(c.path, SQLiteFile)
	}
	return ""
}

// Initialize creates a new .amp directory in the current directory.
func Initialize(serverURL, projectID string) (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	ampPath := filepath.Join(cwd, AmpDir)

	// Check if already initialized
	if _, err := os.Stat(ampPath); err == nil {
		return nil, fmt.Errorf("amp workspace already exists")
	}

	if err := os.MkdirAll(ampPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create .amp directory: %w", err)
	}

	cfg := &Config{
		ServerURL: serverURL,
		ProjectID: projectID,
		path:      ampPath,
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		os.RemoveAll(ampPath)
		return nil, err
	}

	if err := cfg.Save(); err != nil {
		// Cleanup on failure
		os.RemoveAll(ampPath)
		return nil, err
	}

	return cfg, nil
}
