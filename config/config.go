// Package config loads the fetcher configuration from defaults, an optional YAML
// file and environment variables (in that order of precedence, lowest first).
// Everything has a default so the binary runs with only its positional arguments.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure returned from Load.
var ErrInvalid = errors.New("invalid config")

const (
	// DefaultGQLURL is Twitch's internal GraphQL endpoint.
	DefaultGQLURL = "https://gql.twitch.tv/gql"
	// DefaultGQLClientID is the public client id used by the Twitch web player.
	DefaultGQLClientID = "kimne78kx3ncx6brgo4mv6wki5h1ko"
	DefaultHelixURL    = "https://api.twitch.tv/helix"
	DefaultTokenURL    = "https://id.twitch.tv/oauth2/token"
	DefaultOutputDir   = "/tmp"
	DefaultStride      = 300
	DefaultGQLTimeout  = 15 * time.Second
)

type Config struct {
	// Output
	OutputDir string `yaml:"output_dir"`

	// GQL
	GQLURL          string        `yaml:"gql_url"`
	GQLClientID     string        `yaml:"gql_client_id"`
	GQLTimeout      time.Duration `yaml:"gql_timeout"`
	WindowStride    int           `yaml:"window_stride"`
	RequestInterval time.Duration `yaml:"request_interval"`

	// Helix (only needed for duration "auto")
	TwitchClientID     string `yaml:"twitch_client_id"`
	TwitchClientSecret string `yaml:"twitch_client_secret"`
	HelixURL           string `yaml:"helix_url"`
	TokenURL           string `yaml:"token_url"`

	// Optional persistence
	DBDsn string `yaml:"db_dsn"`

	// Telemetry
	MetricsTextfile string `yaml:"metrics_textfile"`
	OTELEndpoint    string `yaml:"otel_endpoint"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func defaults() *Config {
	return &Config{
		OutputDir:    DefaultOutputDir,
		GQLURL:       DefaultGQLURL,
		GQLClientID:  DefaultGQLClientID,
		GQLTimeout:   DefaultGQLTimeout,
		WindowStride: DefaultStride,
		HelixURL:     DefaultHelixURL,
		TokenURL:     DefaultTokenURL,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// Load builds a Config. path names an optional YAML file; when empty, CONFIG_FILE
// is consulted. A named file that cannot be read is an error, no file at all is not.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	envString(&cfg.OutputDir, "OUTPUT_DIR")
	envString(&cfg.GQLURL, "GQL_URL")
	envString(&cfg.GQLClientID, "GQL_CLIENT_ID")
	envString(&cfg.TwitchClientID, "TWITCH_CLIENT_ID")
	envString(&cfg.TwitchClientSecret, "TWITCH_CLIENT_SECRET")
	envString(&cfg.HelixURL, "HELIX_URL")
	envString(&cfg.TokenURL, "TWITCH_TOKEN_URL")
	envString(&cfg.DBDsn, "DB_DSN")
	envString(&cfg.MetricsTextfile, "METRICS_TEXTFILE")
	envString(&cfg.OTELEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	envString(&cfg.LogLevel, "LOG_LEVEL")
	envString(&cfg.LogFormat, "LOG_FORMAT")

	if v := os.Getenv("GQL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%w: GQL_TIMEOUT %q: %v", ErrInvalid, v, err)
		}
		cfg.GQLTimeout = d
	}
	if v := os.Getenv("REQUEST_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%w: REQUEST_INTERVAL %q: %v", ErrInvalid, v, err)
		}
		cfg.RequestInterval = d
	}
	if v := os.Getenv("WINDOW_STRIDE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: WINDOW_STRIDE %q: %v", ErrInvalid, v, err)
		}
		cfg.WindowStride = n
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.GQLTimeout <= 0 {
		return fmt.Errorf("%w: gql timeout must be positive, got %s", ErrInvalid, c.GQLTimeout)
	}
	if c.WindowStride <= 0 {
		return fmt.Errorf("%w: window stride must be positive, got %d", ErrInvalid, c.WindowStride)
	}
	if c.RequestInterval < 0 {
		return fmt.Errorf("%w: request interval must not be negative", ErrInvalid)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output dir empty", ErrInvalid)
	}
	if c.GQLURL == "" {
		return fmt.Errorf("%w: gql url empty", ErrInvalid)
	}
	return nil
}

// ValidateHelixReady checks the credentials needed to resolve a VOD duration through Helix.
func (c *Config) ValidateHelixReady() error {
	if c.TwitchClientID == "" || c.TwitchClientSecret == "" {
		return fmt.Errorf("missing twitch env: require TWITCH_CLIENT_ID, TWITCH_CLIENT_SECRET")
	}
	return nil
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
