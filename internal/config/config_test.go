package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Search.Debounce != 300*time.Millisecond {
		t.Errorf("Debounce = %v, want 300ms", cfg.Search.Debounce)
	}
	if cfg.Search.SuggestLimit != 8 {
		t.Errorf("SuggestLimit = %d, want 8", cfg.Search.SuggestLimit)
	}
	if cfg.Search.MinQueryLen != 2 {
		t.Errorf("MinQueryLen = %d, want 2", cfg.Search.MinQueryLen)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HARBOR_API_URL", "")
	t.Setenv("HARBOR_DATA_DIR", t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != DefaultConfig().API.BaseURL {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("HARBOR_API_URL", "")
	t.Setenv("HARBOR_DATA_DIR", t.TempDir())
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	t.Run("absent", func(t *testing.T) {
		t.Chdir(t.TempDir())
		if _, err := Load(missing); err != nil {
			t.Errorf("a missing .env should be fine, got %v", err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("HARBOR_THEME=\"light\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Chdir(dir)
		if _, err := Load(missing); err == nil {
			t.Error("expected an error for a malformed .env")
		}
	})
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
api:
  base_url: https://forum.example.com/api
  timeout: 5s
search:
  debounce: 150ms
  min_query_len: 2
  suggest_limit: 5
ui:
  theme: light
data_dir: ` + dir + `
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HARBOR_THEME", "dark")
	t.Setenv("HARBOR_API_URL", "")
	t.Setenv("HARBOR_DATA_DIR", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "https://forum.example.com/api" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.API.Timeout)
	}
	if cfg.Search.Debounce != 150*time.Millisecond || cfg.Search.SuggestLimit != 5 {
		t.Errorf("search config = %+v", cfg.Search)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("env override not applied: theme = %q", cfg.UI.Theme)
	}
	// Untouched sections keep defaults.
	if cfg.Notifications.PageSize != 20 {
		t.Errorf("PageSize = %d, want default 20", cfg.Notifications.PageSize)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }},
		{"zero suggest limit", func(c *Config) { c.Search.SuggestLimit = 0 }},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.DataDir = dir
	cfg.UI.Theme = "light"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	t.Setenv("HARBOR_THEME", "")
	t.Setenv("HARBOR_API_URL", "")
	t.Setenv("HARBOR_DATA_DIR", "")
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.UI.Theme != "light" || loaded.DataDir != dir {
		t.Errorf("loaded = %+v", loaded.UI)
	}
}
