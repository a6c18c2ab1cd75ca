package factory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/storyarc/storyarc/internal/aicache"
	"github.com/storyarc/storyarc/internal/config"
	storesqlite "github.com/storyarc/storyarc/internal/eventstore/sqlite"
)

// NewCache returns the configured AI response cache. The sqlite variant
// shares the event store's database file so one data directory holds
// everything.
func NewCache(cfg *config.Config, log zerolog.Logger) (aicache.Store, error) {
	switch cfg.CacheStore {
	case "memory":
		return aicache.NewMemoryStore(), nil

	case "sqlite":
		db, err := storesqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open cache db: %w", err)
		}
		c, err := aicache.NewSqliteStore(db)
		if err != nil {
			return nil, fmt.Errorf("bootstrap cache schema: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("sqlite ai cache ready")
		return c, nil

	default:
		return nil, fmt.Errorf("unknown CACHE_STORE: %s", cfg.CacheStore)
	}
}
