// Package config holds harbor's persistent client configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the client configuration, stored as YAML.
type Config struct {
	API           APIConfig          `yaml:"api"`
	Search        SearchConfig       `yaml:"search"`
	Notifications NotificationConfig `yaml:"notifications"`
	UI            UIConfig           `yaml:"ui"`

	// DataDir holds the session database, logs and the event log.
	DataDir string `yaml:"data_dir" validate:"required"`
}

// APIConfig points the gateway client at the portal REST service.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
	// RateLimit caps requests per second; 0 disables the limiter.
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`
}

// SearchConfig tunes the suggestion engine.
type SearchConfig struct {
	Debounce     time.Duration `yaml:"debounce" validate:"gte=0"`
	MinQueryLen  int           `yaml:"min_query_len" validate:"gte=1"`
	SuggestLimit int           `yaml:"suggest_limit" validate:"gte=1,lte=50"`
}

// NotificationConfig tunes the feed unit.
type NotificationConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" validate:"gte=0"` // 0 disables polling
	PageSize     int           `yaml:"page_size" validate:"gte=1,lte=100"`
}

// UIConfig holds front-end preferences.
type UIConfig struct {
	Theme string `yaml:"theme" validate:"oneof=dark light"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:5000/api",
			Timeout: 15 * time.Second,
		},
		Search: SearchConfig{
			Debounce:     300 * time.Millisecond,
			MinQueryLen:  2,
			SuggestLimit: 8,
		},
		Notifications: NotificationConfig{
			PollInterval: time.Minute,
			PageSize:     20,
		},
		UI:      UIConfig{Theme: "dark"},
		DataDir: filepath.Join(home, ".harbor"),
	}
}

// ConfigPath returns the default config file location.
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".harbor", "config.yaml")
}

// Load reads the YAML file at path over the defaults, then applies .env and
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from HARBOR_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("HARBOR_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("HARBOR_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("HARBOR_THEME"); v != "" {
		c.UI.Theme = v
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// Save writes the config as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// SessionPath is the SQLite file holding the persisted session.
func (c *Config) SessionPath() string {
	return filepath.Join(c.DataDir, "session.db")
}

// EventLogPath is the JSONL event log.
func (c *Config) EventLogPath() string {
	return filepath.Join(c.DataDir, "events.jsonl")
}
