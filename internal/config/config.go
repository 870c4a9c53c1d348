// Package config handles TOML configuration loading with environment
// variable substitution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server      ServerConfig       `toml:"server"`
	Database    DatabaseConfig     `toml:"database"`
	Libraries   LibrariesConfig    `toml:"libraries"`
	Ingest      IngestConfig       `toml:"ingest"`
	Debrid      DebridConfig       `toml:"debrid"`
	Addons      []AddonConfig      `toml:"addons"`
	Stream      StreamConfig       `toml:"stream"`
	Refresh     RefreshConfig      `toml:"refresh"`
	MediaServer *MediaServerConfig `toml:"mediaserver"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LibrariesConfig struct {
	Movies LibraryConfig `toml:"movies"`
	TV     LibraryConfig `toml:"tv"`
}

type LibraryConfig struct {
	Root string `toml:"root"`
}

type IngestConfig struct {
	Path          string        `toml:"path"`
	ArchiveDir    string        `toml:"archive_dir"`
	QuarantineDir string        `toml:"quarantine_dir"`
	PollInterval  time.Duration `toml:"poll_interval"`
}

type DebridConfig struct {
	URL            string        `toml:"url"`
	APIKey         string        `toml:"api_key"`
	PollInterval   time.Duration `toml:"poll_interval"`
	MaxAttempts    int           `toml:"max_attempts"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

type AddonConfig struct {
	Name    string        `toml:"name"`
	URL     string        `toml:"url"`
	Timeout time.Duration `toml:"timeout"`
}

type StreamConfig struct {
	BaseURL         string        `toml:"base_url"`
	GracePeriod     time.Duration `toml:"grace_period"`
	StabilityWindow time.Duration `toml:"stability_window"`
	SessionTTL      time.Duration `toml:"session_ttl"`
	DefaultQuality  string        `toml:"default_quality"`

	// ResetToPreferred controls what the stability window resets to: index 0
	// when true, the currently playing candidate when false.
	ResetToPreferred *bool `toml:"reset_to_preferred"`
}

type RefreshConfig struct {
	Schedule        string        `toml:"schedule"`
	ValidityHorizon time.Duration `toml:"validity_horizon"`
	SafetyMargin    time.Duration `toml:"safety_margin"`
}

type MediaServerConfig struct {
	Kind  string `toml:"kind"` // "jellyfin" (default) or "plex"
	URL   string `toml:"url"`
	Token string `toml:"token"`
}

// ResetPreferred resolves the pointer-valued option with its default (true).
func (s StreamConfig) ResetPreferred() bool {
	if s.ResetToPreferred == nil {
		return true
	}
	return *s.ResetToPreferred
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Substitute environment variables
	content := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &ConfigError{Path: path, Errors: errs}
	}

	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8787
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/strmd.db"
	}
	if cfg.Ingest.PollInterval == 0 {
		cfg.Ingest.PollInterval = 30 * time.Second
	}
	if cfg.Ingest.ArchiveDir == "" && cfg.Ingest.Path != "" {
		cfg.Ingest.ArchiveDir = filepath.Join(cfg.Ingest.Path, "processed")
	}
	if cfg.Ingest.QuarantineDir == "" && cfg.Ingest.Path != "" {
		cfg.Ingest.QuarantineDir = filepath.Join(cfg.Ingest.Path, "quarantine")
	}
	if cfg.Debrid.URL == "" {
		cfg.Debrid.URL = "https://api.real-debrid.com/rest/1.0"
	}
	if cfg.Debrid.PollInterval == 0 {
		cfg.Debrid.PollInterval = 2 * time.Second
	}
	if cfg.Debrid.MaxAttempts == 0 {
		cfg.Debrid.MaxAttempts = 5
	}
	if cfg.Debrid.RequestTimeout == 0 {
		cfg.Debrid.RequestTimeout = 30 * time.Second
	}
	for i := range cfg.Addons {
		if cfg.Addons[i].Timeout == 0 {
			cfg.Addons[i].Timeout = 10 * time.Second
		}
	}
	if cfg.Stream.GracePeriod == 0 {
		cfg.Stream.GracePeriod = 45 * time.Second
	}
	if cfg.Stream.StabilityWindow == 0 {
		cfg.Stream.StabilityWindow = 2 * time.Minute
	}
	if cfg.Stream.SessionTTL == 0 {
		cfg.Stream.SessionTTL = 10 * time.Minute
	}
	if cfg.Stream.DefaultQuality == "" {
		cfg.Stream.DefaultQuality = "1080p"
	}
	if cfg.Stream.BaseURL == "" {
		cfg.Stream.BaseURL = fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	}
	if cfg.Refresh.Schedule == "" {
		cfg.Refresh.Schedule = "@daily"
	}
	if cfg.Refresh.ValidityHorizon == 0 {
		cfg.Refresh.ValidityHorizon = 30 * 24 * time.Hour
	}
	if cfg.Refresh.SafetyMargin == 0 {
		cfg.Refresh.SafetyMargin = 24 * time.Hour
	}
	if cfg.MediaServer != nil && cfg.MediaServer.Kind == "" {
		cfg.MediaServer.Kind = "jellyfin"
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1] // Strip ${ and }
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		return match // Leave unchanged if not found
	})
}
