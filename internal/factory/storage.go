// Package factory constructs configured infrastructure components so the
// bootstrap stays declarative.
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/storyarc/storyarc/internal/config"
	"github.com/storyarc/storyarc/internal/eventstore"
	storepg "github.com/storyarc/storyarc/internal/eventstore/postgres"
	storesqlite "github.com/storyarc/storyarc/internal/eventstore/sqlite"
)

// NewStore returns the event store for the configured driver. The connection
// opens synchronously because health checks need it immediately; a failure
// surfaces at startup, not on first request.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (eventstore.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		st, err := storesqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("sqlite event store ready")
		return st, nil

	case "postgres":
		db, err := storepg.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		bootCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.BootstrapTimeoutSeconds)*time.Second)
		defer cancel()
		if err := storepg.EnsureSchema(bootCtx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap postgres schema: %w", err)
		}
		log.Info().Msg("postgres event store ready")
		return storepg.NewWithDB(db), nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
