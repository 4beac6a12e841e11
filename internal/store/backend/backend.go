// Package backend builds the configured store.Gateway.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"devthon-registration/internal/config"
	"devthon-registration/internal/postgrest"
	"devthon-registration/internal/sheets"
	"devthon-registration/internal/store"
	"devthon-registration/internal/store/memory"
	"devthon-registration/internal/store/postgres"
	"devthon-registration/internal/store/sqlite"
)

// New returns the gateway named by cfg.StoreBackend and a close func that
// releases its resources.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (store.Gateway, func(), error) {
	noop := func() {}

	switch cfg.StoreBackend {
	case "memory":
		log.Warn("using in-memory store; registrations are lost on restart")
		return memory.New(), noop, nil

	case "postgres":
		if cfg.MigrateOnStart {
			runner, err := postgres.NewRunner(cfg.DatabaseURL, log)
			if err != nil {
				return nil, noop, fmt.Errorf("migrations: %w", err)
			}
			if err := runner.Ensure(ctx); err != nil {
				return nil, noop, err
			}
		}
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("postgres: %w", err)
		}
		return postgres.New(pool), pool.Close, nil

	case "sqlite":
		st, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("sqlite: %w", err)
		}
		return st, func() { _ = st.Close() }, nil

	case "postgrest":
		c, err := postgrest.New(cfg.PostgRESTURL, cfg.PostgRESTKey, cfg.PostgRESTTable)
		if err != nil {
			return nil, noop, err
		}
		return c, noop, nil

	case "sheets":
		c, err := sheets.New(cfg.GoogleServiceAccountJSON, cfg.SpreadsheetID)
		if err != nil {
			return nil, noop, fmt.Errorf("sheets: %w", err)
		}
		if err := c.EnsureHeaders(ctx); err != nil {
			return nil, noop, fmt.Errorf("sheets headers: %w", err)
		}
		return c, noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
}
