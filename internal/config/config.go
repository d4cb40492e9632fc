package config

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/binderlink/binderlink/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "binderlink.json"

	// DefaultListen is the default listen address.
	DefaultListen = ":8585"

	// DefaultPublicBaseURL is the default base of advertised launch links.
	DefaultPublicBaseURL = "http://localhost:8585/"

	// DefaultBaseURL is the default path prefix the server is mounted under.
	DefaultBaseURL = "/"

	// DefaultMetricsNamespace is the default Prometheus namespace.
	DefaultMetricsNamespace = "binderlink"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "binderlink"

	// DefaultReadLimit is the default maximum WebSocket message size.
	DefaultReadLimit = 4096

	// DefaultPingInterval is the default WebSocket ping interval.
	DefaultPingInterval = "30s"
)

// Environment variables that override file values.
const (
	EnvListen        = "BINDERLINK_LISTEN"
	EnvPublicBaseURL = "BINDERLINK_PUBLIC_BASE_URL"
)

// Config represents the complete binderlink.json configuration.
type Config struct {
	// Listen is the address the HTTP server binds to.
	Listen string `json:"listen,omitempty"`

	// PublicBaseURL is the absolute URL launch links are resolved against.
	PublicBaseURL string `json:"publicBaseUrl,omitempty"`

	// BaseURL is the path prefix every route is mounted under.
	BaseURL string `json:"baseUrl,omitempty"`

	// Providers selects where the provider registry comes from.
	Providers ProvidersConfig `json:"providers"`

	// Metrics configures the /metrics endpoint.
	Metrics MetricsConfig `json:"metrics"`

	// Events configures launch event sinks.
	Events EventsConfig `json:"events"`

	// Tracing configures OpenTelemetry tracing.
	Tracing TracingConfig `json:"tracing"`

	// WebSocket configures live form sessions.
	WebSocket WebSocketConfig `json:"websocket"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ProvidersConfig selects the provider registry source. With neither File
// nor S3 set, the built-in table is used.
type ProvidersConfig struct {
	// File is a JSON, YAML or TOML registry file.
	File string `json:"file,omitempty"`

	// Watch reloads File when it changes.
	Watch bool `json:"watch,omitempty"`

	// S3 reads the registry from an object instead of File.
	S3 *S3Config `json:"s3,omitempty"`
}

// S3Config locates a registry object.
type S3Config struct {
	Bucket       string `json:"bucket"`
	Key          string `json:"key"`
	Region       string `json:"region,omitempty"`
	Endpoint     string `json:"endpoint,omitempty"`
	UsePathStyle bool   `json:"usePathStyle,omitempty"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled"`
	Namespace string `json:"namespace,omitempty"`

	// AllowedIPs lists CIDR prefixes or bare addresses allowed to scrape.
	// Empty allows everyone.
	AllowedIPs []string `json:"allowedIps,omitempty"`
}

// EventsConfig configures launch event sinks. Events are discarded when
// both are empty.
type EventsConfig struct {
	// Log is a JSON-lines file; "-" writes to stdout.
	Log string `json:"log,omitempty"`

	// SQLite is a database file.
	SQLite string `json:"sqlite,omitempty"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	TracerName string `json:"tracerName,omitempty"`
}

// WebSocketConfig configures live form sessions.
type WebSocketConfig struct {
	// ReadLimit is the maximum client message size in bytes.
	ReadLimit int64 `json:"readLimit,omitempty"`

	// PingInterval is how often the server pings, e.g. "30s".
	PingInterval string `json:"pingInterval,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Listen:        DefaultListen,
		PublicBaseURL: DefaultPublicBaseURL,
		BaseURL:       DefaultBaseURL,
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultMetricsNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultTracerName,
		},
		WebSocket: WebSocketConfig{
			ReadLimit:    DefaultReadLimit,
			PingInterval: DefaultPingInterval,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for binderlink.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path, then applies
// defaults and environment overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").
				WithDetail("No " + ConfigFileName + " found at " + path)
		}
		return nil, errors.New("E101").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E101").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()
	cfg.ApplyEnv()

	return cfg, nil
}

// ApplyEnv overrides file values with the BINDERLINK_* environment variables.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvListen); ok && v != "" {
		c.Listen = v
	}
	if v, ok := os.LookupEnv(EnvPublicBaseURL); ok && v != "" {
		c.PublicBaseURL = v
	}
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E101").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E101").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.PublicBaseURL == "" {
		c.PublicBaseURL = DefaultPublicBaseURL
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
	if c.WebSocket.ReadLimit == 0 {
		c.WebSocket.ReadLimit = DefaultReadLimit
	}
	if c.WebSocket.PingInterval == "" {
		c.WebSocket.PingInterval = DefaultPingInterval
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.PublicBase(); err != nil {
		return err
	}
	if !strings.HasPrefix(c.BaseURL, "/") || !strings.HasSuffix(c.BaseURL, "/") {
		return errors.New("E102").
			WithDetailf("baseUrl %q must start and end with /", c.BaseURL)
	}
	if c.WebSocket.ReadLimit <= 0 {
		return errors.New("E102").WithDetail("websocket.readLimit must be positive")
	}
	if d, err := time.ParseDuration(c.WebSocket.PingInterval); err != nil || d <= 0 {
		return errors.New("E102").
			WithDetailf("websocket.pingInterval %q is not a positive duration", c.WebSocket.PingInterval)
	}
	if s3 := c.Providers.S3; s3 != nil {
		if s3.Bucket == "" || s3.Key == "" {
			return errors.New("E102").WithDetail("providers.s3 needs both bucket and key")
		}
		if c.Providers.File != "" {
			return errors.New("E102").WithDetail("providers.file and providers.s3 are exclusive")
		}
	}
	if c.Providers.Watch && c.Providers.File == "" {
		return errors.New("E102").WithDetail("providers.watch needs providers.file")
	}
	return nil
}

// PublicBase parses PublicBaseURL. It must be an absolute http(s) URL.
func (c *Config) PublicBase() (*url.URL, error) {
	u, err := url.Parse(c.PublicBaseURL)
	if err != nil {
		return nil, errors.New("E103").WithDetail(c.PublicBaseURL).Wrap(err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.New("E103").WithDetail(c.PublicBaseURL)
	}
	return u, nil
}

// PingIntervalDuration returns the parsed ping interval, falling back to the
// default when the value does not parse.
func (c *Config) PingIntervalDuration() time.Duration {
	if d, err := time.ParseDuration(c.WebSocket.PingInterval); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(DefaultPingInterval)
	return d
}

// ResolvePath returns p relative to the config file directory, or p itself
// when it is absolute, empty, or "-".
func (c *Config) ResolvePath(p string) string {
	if p == "" || p == "-" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir(), p)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
