// Package cli provides the initialization steps shared by cmd/smartspend and
// cmd/smartspend-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"smartspend/internal/config"
	"smartspend/internal/log"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// SetupLogger builds the root logger for component and installs it as the
// slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	lc := log.DefaultConfig()
	lc.Component = component
	if cfg != nil {
		lc.Level = cfg.SlogLevel()
	}
	if os.Getenv("LOG_FORMAT") == "json" {
		lc.Format = "json"
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap runs the common startup sequence: .env, config, logger. It exits
// the process when configuration is invalid.
func Bootstrap(component string) (*config.Config, *log.Logger) {
	if err := LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		logger := SetupLogger(nil, component)
		logger.Error("Configuration validation failed", log.FieldError, err, log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg, SetupLogger(cfg, component)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		if logger != nil {
			logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
		}
	}()
	return ctx, stop
}
