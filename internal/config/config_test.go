package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/binderlink/binderlink/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Listen != DefaultListen {
		t.Errorf("Listen = %q, want %q", cfg.Listen, DefaultListen)
	}
	if cfg.PublicBaseURL != DefaultPublicBaseURL {
		t.Errorf("PublicBaseURL = %q, want %q", cfg.PublicBaseURL, DefaultPublicBaseURL)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Namespace != DefaultMetricsNamespace {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := Load(tmpDir); !errors.HasCode(err, "E100") {
		t.Errorf("Load(missing) err = %v, want E100", err)
	}

	configJSON := `{
  "listen": "127.0.0.1:9000",
  "publicBaseUrl": "https://binder.example.org/hub/",
  "baseUrl": "/hub/",
  "providers": {"file": "providers.yaml", "watch": true},
  "metrics": {"enabled": false, "allowedIps": ["10.0.0.0/8"]},
  "events": {"sqlite": "data/events.db"},
  "websocket": {"pingInterval": "5s"}
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Listen != "127.0.0.1:9000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.BaseURL != "/hub/" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if !cfg.Providers.Watch || cfg.Providers.File != "providers.yaml" {
		t.Errorf("Providers = %+v", cfg.Providers)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should be false")
	}
	if len(cfg.Metrics.AllowedIPs) != 1 || cfg.Metrics.AllowedIPs[0] != "10.0.0.0/8" {
		t.Errorf("AllowedIPs = %v", cfg.Metrics.AllowedIPs)
	}
	// Unset fields get defaults.
	if cfg.Metrics.Namespace != DefaultMetricsNamespace {
		t.Errorf("Metrics.Namespace = %q", cfg.Metrics.Namespace)
	}
	if cfg.WebSocket.ReadLimit != DefaultReadLimit {
		t.Errorf("ReadLimit = %d", cfg.WebSocket.ReadLimit)
	}
	if cfg.PingIntervalDuration() != 5*time.Second {
		t.Errorf("PingIntervalDuration = %v", cfg.PingIntervalDuration())
	}
	if got := cfg.ResolvePath(cfg.Events.SQLite); got != filepath.Join(tmpDir, "data", "events.db") {
		t.Errorf("ResolvePath = %q", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"listen": `), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); !errors.HasCode(err, "E101") {
		t.Errorf("LoadFile err = %v, want E101", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(`{"listen": ":1"}`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvListen, ":2")
	t.Setenv(EnvPublicBaseURL, "https://mybinder.example/")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":2" || cfg.PublicBaseURL != "https://mybinder.example/" {
		t.Errorf("env overrides not applied: listen=%q public=%q", cfg.Listen, cfg.PublicBaseURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		wantCode string
	}{
		{"relative public URL", func(c *Config) { c.PublicBaseURL = "/binder/" }, "E103"},
		{"non-http public URL", func(c *Config) { c.PublicBaseURL = "ftp://x/" }, "E103"},
		{"base URL without trailing slash", func(c *Config) { c.BaseURL = "/hub" }, "E102"},
		{"zero read limit", func(c *Config) { c.WebSocket.ReadLimit = 0 }, "E102"},
		{"bad ping interval", func(c *Config) { c.WebSocket.PingInterval = "soon" }, "E102"},
		{"s3 without key", func(c *Config) { c.Providers.S3 = &S3Config{Bucket: "b"} }, "E102"},
		{"s3 and file", func(c *Config) {
			c.Providers.File = "p.json"
			c.Providers.S3 = &S3Config{Bucket: "b", Key: "k"}
		}, "E102"},
		{"watch without file", func(c *Config) { c.Providers.Watch = true }, "E102"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.HasCode(err, tt.wantCode) {
				t.Errorf("Validate() = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestSaveTo(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := New()
	cfg.Providers.S3 = &S3Config{Bucket: "cfg", Key: "providers.json", UsePathStyle: true}

	if err := cfg.Save(); err == nil {
		t.Error("Save without a path should fail")
	}

	path := filepath.Join(tmpDir, ConfigFileName)
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	if cfg.Path() != path || cfg.Dir() != tmpDir {
		t.Errorf("Path = %q, Dir = %q", cfg.Path(), cfg.Dir())
	}
	if !Exists(tmpDir) {
		t.Error("Exists should report the saved file")
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.Providers.S3 == nil || loaded.Providers.S3.Bucket != "cfg" || !loaded.Providers.S3.UsePathStyle {
		t.Errorf("S3 = %+v", loaded.Providers.S3)
	}
}

func TestResolvePath(t *testing.T) {
	cfg := New()
	if got := cfg.ResolvePath("-"); got != "-" {
		t.Errorf("ResolvePath(-) = %q", got)
	}
	if got := cfg.ResolvePath("/abs/x.db"); got != "/abs/x.db" {
		t.Errorf("ResolvePath(abs) = %q", got)
	}
	if got := cfg.ResolvePath("x.db"); got != "x.db" {
		t.Errorf("ResolvePath without config dir = %q", got)
	}
}
