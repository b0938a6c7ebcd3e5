// Package cli holds the start-up steps shared by cmd/semmelweis and
// cmd/semmelweis-report.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"semmelweis/internal/config"
	"semmelweis/internal/dataset"
	"semmelweis/internal/dataset/csvfile"
	"semmelweis/internal/dataset/google"
	applog "semmelweis/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Configuration load failed", applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeValidation,
			applog.FieldOperation, applog.OpValidate)
		os.Exit(1)
	}
	return cfg
}

// SetupLogger builds the application logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: applog.ComponentApp,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	return logger
}

// OpenSource builds the dataset source selected by DATA_BACKEND.
func OpenSource(ctx context.Context, cfg *config.Config) (dataset.Source, error) {
	switch cfg.DataBackend {
	case config.BackendSheets:
		src, err := google.New(ctx, google.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			Range:              cfg.GoogleSheetRange,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("init sheets source: %w", err)
		}
		return src, nil
	case config.BackendCSV, "":
		return csvfile.New(cfg.DatasetPath, csvfile.FingerprintMode(cfg.DatasetFingerprint)), nil
	}
	return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
