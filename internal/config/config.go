package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendCSV    = "csv"
	BackendSheets = "sheets"
)

type Config struct {
	// HTTP Server
	Port         string        `env:"PORT"          envDefault:"8081"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT"  envDefault:"10s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT"  envDefault:"60s"`

	// Dataset
	DataBackend        string        `env:"DATA_BACKEND"           envDefault:"csv"`
	DatasetPath        string        `env:"DATASET_PATH"           envDefault:"data/yearly_deaths_by_clinic.csv"`
	DatasetFingerprint string        `env:"DATASET_FINGERPRINT"    envDefault:"stat"`
	DatasetWatch       bool          `env:"DATASET_WATCH"          envDefault:"true"`
	CacheTTL           time.Duration `env:"DATASET_CACHE_TTL"      envDefault:"0s"`
	CacheSize          int           `env:"DATASET_CACHE_SIZE"     envDefault:"4"`
	CleanupInterval    time.Duration `env:"CACHE_CLEANUP_INTERVAL" envDefault:"10m"`

	// Google Sheets
	GoogleSpreadsheetID      string `env:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetRange         string `env:"GOOGLE_SHEET_RANGE"          envDefault:"Data!A:Z"`
	GoogleServiceAccountJSON string `env:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile string `env:"GOOGLE_SERVICE_ACCOUNT_FILE"`

	// Middleware and logging
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	LogLevel           string `env:"LOG_LEVEL"             envDefault:"info"`
	LogFormat          string `env:"LOG_FORMAT"            envDefault:"text"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.DataBackend = strings.ToLower(strings.TrimSpace(cfg.DataBackend))
	cfg.DatasetFingerprint = strings.ToLower(strings.TrimSpace(cfg.DatasetFingerprint))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	return &cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + c.Port }

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendCSV, BackendSheets}
	if !slices.Contains(validBackends, c.DataBackend) {
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendCSV:
		if strings.TrimSpace(c.DatasetPath) == "" {
			problems = append(problems, "dataset path cannot be empty when using csv backend")
		}
		validModes := []string{"stat", "sha256"}
		if !slices.Contains(validModes, c.DatasetFingerprint) {
			problems = append(problems, fmt.Sprintf("invalid dataset fingerprint '%s': must be one of %v", c.DatasetFingerprint, validModes))
		}
	case BackendSheets:
		if c.GoogleSpreadsheetID == "" {
			problems = append(problems, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetRange == "" {
			problems = append(problems, "Google Sheet range is required when using sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			problems = append(problems, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); errors.Is(err, os.ErrNotExist) {
				problems = append(problems, fmt.Sprintf("Google service account file '%s' does not exist", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.CacheSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid dataset cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < 0 {
		problems = append(problems, fmt.Sprintf("invalid dataset cache TTL %v: cannot be negative", c.CacheTTL))
	}
	if c.CleanupInterval < 0 {
		problems = append(problems, fmt.Sprintf("invalid cache cleanup interval %v: cannot be negative", c.CleanupInterval))
	}
	if c.RateLimitPerMinute < 0 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: cannot be negative", c.RateLimitPerMinute))
	}
	for name, d := range map[string]time.Duration{"read": c.ReadTimeout, "write": c.WriteTimeout, "idle": c.IdleTimeout} {
		if d <= 0 {
			problems = append(problems, fmt.Sprintf("invalid %s timeout %v: must be positive", name, d))
		}
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.LogLevel) {
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	if !slices.Contains([]string{"text", "json"}, c.LogFormat) {
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if len(problems) > 0 {
		slices.Sort(problems)
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
