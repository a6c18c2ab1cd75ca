package factory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/storyarc/storyarc/internal/config"
	"github.com/storyarc/storyarc/internal/llm"
)

// NewProvider creates the AI backend client and launches an async warmup so
// startup is not blocked on a slow or cold backend.
func NewProvider(ctx context.Context, cfg *config.Config, log zerolog.Logger) llm.Provider {
	provider := llm.NewOpenAI(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout)

	go func() {
		warmupTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
		warmupCtx, cancel := context.WithTimeout(ctx, warmupTimeout)
		defer cancel()

		if err := provider.HealthPing(warmupCtx); err != nil {
			log.Warn().Err(err).Str("base_url", cfg.LLMBaseURL).Msg("ai backend warmup failed")
		} else {
			log.Debug().Str("base_url", cfg.LLMBaseURL).Str("model", cfg.LLMModel).Msg("ai backend warmup completed")
		}
	}()

	return provider
}
