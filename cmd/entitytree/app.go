package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/matthewbaird/entitytree/internal/config"
	"github.com/matthewbaird/entitytree/internal/logging"
	"github.com/matthewbaird/entitytree/internal/storage"
)

// loadConfig reads the --config flag and builds the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format), nil
}

// openStore opens the configured store. The returned func releases it.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (storage.Store, func() error, error) {
	if cfg.Driver == "memory" {
		logger.Info("using in-memory store")
		return storage.NewMemoryStore(), func() error { return nil }, nil
	}

	db, err := sql.Open("sqlite", cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// SQLite leaves foreign keys off unless asked per connection.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	store := storage.NewSQLStore(drv)
	if err := store.Migrate(ctx); err != nil {
		drv.Close()
		return nil, nil, fmt.Errorf("running schema migration: %w", err)
	}
	logger.Info("database migrated", "url", cfg.URL)
	return store, drv.Close, nil
}

// seedFrom loads the fixture file at path into store.
func seedFrom(ctx context.Context, store storage.Store, path string, logger *slog.Logger) error {
	f, err := storage.LoadFixturesFile(path)
	if err != nil {
		return err
	}
	if _, err := storage.Seed(ctx, store, f, logger); err != nil {
		return fmt.Errorf("seeding from %s: %w", path, err)
	}
	return nil
}
