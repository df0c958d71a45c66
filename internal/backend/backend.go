// Package backend builds the key-value store behind the ledger from the
// application configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"smartspend/internal/config"
	"smartspend/internal/ports"
	"smartspend/internal/storage"
	"smartspend/internal/storage/memory"
)

// Store is a key-value store that can report its health.
type Store interface {
	ports.KeyValueStore
	Ping(ctx context.Context) error
}

// CleanupFunc releases resources held by a store.
type CleanupFunc func() error

// Result contains the store and an optional cleanup function.
type Result struct {
	Store   Store
	Cleanup CleanupFunc
}

// Close runs the cleanup function if there is one.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Type represents the kind of store.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Config holds configuration for store creation
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Memory specific: optional seed files read once at startup
	DataDirectory string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	t := Type(appConfig.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:          t,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		DataDirectory: appConfig.DataDirectory,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	return nil
}

// Open creates the store described by cfg.
func Open(ctx context.Context, logger *slog.Logger, cfg Config) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		if err := repo.Ping(ctx); err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("sqlite ping: %w", err)
		}
		logger.InfoContext(ctx, "Initialized SQLite store", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: repo, Cleanup: repo.Close}, nil

	case MemoryBackend:
		dataDir := cfg.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		store := memory.NewFromFiles(dataDir)
		logger.InfoContext(ctx, "Initialized memory store", "data_directory", dataDir, "seeded_keys", store.Len())
		return &Result{Store: store}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
