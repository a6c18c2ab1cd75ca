package llm

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/storyarc/storyarc/internal/health"
)

// ProviderHealthChecker monitors the AI backend by probing the provider.
type ProviderHealthChecker struct {
	provider     Provider
	embedModel   string
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

func NewProviderHealthChecker(p Provider, embedModel string, log zerolog.Logger, probeTimeout time.Duration) *ProviderHealthChecker {
	hc := &ProviderHealthChecker{provider: p, embedModel: embedModel, log: log, probeTimeout: probeTimeout}
	hc.healthy.Store(0) // start unhealthy until first successful probe
	return hc
}

func (c *ProviderHealthChecker) Name() string    { return "ai-backend" }
func (c *ProviderHealthChecker) IsHealthy() bool { return c.healthy.Load() == 1 }

func (c *ProviderHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	run := func() {
		to := c.probeTimeout
		if to <= 0 {
			to = 2 * time.Second
		}
		checkCtx, cancel := context.WithTimeout(ctx, to)
		defer cancel()
		// Prefer a specialized HealthPing if the provider offers one.
		if p, ok := any(c.provider).(health.HealthPinger); ok {
			if err := p.HealthPing(checkCtx); err != nil {
				c.healthy.Store(0)
				c.log.Error().Stack().Str("checker", c.Name()).Err(err).Msg("ai backend health check failed")
				return
			}
			c.healthy.Store(1)
			return
		}
		// Fallback: a minimal embedding round-trip.
		vec, err := c.provider.Embed(checkCtx, c.embedModel, "health-check")
		if err != nil || len(vec) == 0 {
			c.healthy.Store(0)
			c.log.Error().Stack().Str("checker", c.Name()).Err(err).Msg("ai backend health check failed")
			return
		}
		c.healthy.Store(1)
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
