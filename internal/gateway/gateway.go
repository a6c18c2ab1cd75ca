// Package gateway is the single choke point for all generative-text calls.
// It owns content-addressed caching, token/cost accounting, batch throttling
// and streaming passthrough. The gateway never retries; callers decide their
// own retry policy.
package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/storyarc/storyarc/internal/aicache"
	"github.com/storyarc/storyarc/internal/llm"
)

// Config tunes gateway defaults. Zero values fall back to sane settings.
type Config struct {
	Model       string
	EmbedModel  string
	Temperature float64
	MaxTokens   int
	CacheTTL    time.Duration
	BatchSize   int
	BatchDelay  time.Duration
}

// Options overrides per-call settings. Nil pointer fields inherit the
// gateway defaults.
type Options struct {
	Model        string
	Temperature  *float64
	MaxTokens    int
	SystemPrompt string
	UseCache     *bool
}

// Result is the uniform output of every gateway call. A cache hit is
// identical in shape to a live call; only Cached distinguishes it.
type Result struct {
	Text    string    `json:"text"`
	Usage   llm.Usage `json:"usage"`
	CostUSD float64   `json:"costUsd"`
	Model   string    `json:"model"`
	Cached  bool      `json:"cached"`
}

// Gateway mediates all calls to the generative-text backend.
type Gateway struct {
	provider llm.Provider
	cache    aicache.Store
	cfg      Config
	log      zerolog.Logger

	mu        sync.Mutex
	totalCost float64
}

// New constructs a Gateway. cache may be nil to disable caching entirely.
func New(provider llm.Provider, cache aicache.Store, cfg Config, log zerolog.Logger) *Gateway {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 7 * 24 * time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = time.Second
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	return &Gateway{
		provider: provider,
		cache:    cache,
		cfg:      cfg,
		log:      log.With().Str("component", "gateway").Logger(),
	}
}

// TotalCost reports the cumulative dollar cost of live calls on this gateway.
func (g *Gateway) TotalCost() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.totalCost
}

// GenerateText wraps a single prompt (plus optional system prompt) as a chat
// completion.
func (g *Gateway) GenerateText(ctx context.Context, prompt string, opts Options) (*Result, error) {
	msgs := make([]llm.Message, 0, 2)
	if opts.SystemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: opts.SystemPrompt})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: prompt})
	return g.ChatCompletion(ctx, msgs, opts)
}

// ChatCompletion executes a chat completion through the cache.
func (g *Gateway) ChatCompletion(ctx context.Context, messages []llm.Message, opts Options) (*Result, error) {
	req := g.buildRequest(messages, opts)
	useCache := g.cache != nil && (opts.UseCache == nil || *opts.UseCache)

	var key string
	if useCache {
		key = cacheKey(req)
		if entry, ok, err := g.cache.Get(ctx, key); err == nil && ok {
			cacheHitsTotal.Inc()
			return &Result{Text: entry.Content, Usage: entry.Usage, CostUSD: entry.CostUSD, Model: req.Model, Cached: true}, nil
		} else if err != nil {
			// A broken cache store must not block generation.
			g.log.Warn().Err(err).Msg("cache read failed; calling backend")
		}
	}

	completion, err := g.provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	requestsTotal.WithLabelValues("chat").Inc()

	res := g.account(req.Model, completion)
	if useCache {
		entry := &aicache.Entry{Content: res.Text, Usage: res.Usage, CostUSD: res.CostUSD}
		if err := g.cache.Set(ctx, key, entry, g.cfg.CacheTTL); err != nil {
			g.log.Warn().Err(err).Msg("cache write failed")
		}
	}
	return res, nil
}

// StreamChatCompletion streams a completion through onChunk. Streamed
// responses are never cached; stream errors abort and propagate.
func (g *Gateway) StreamChatCompletion(ctx context.Context, messages []llm.Message, onChunk llm.ChunkFunc, opts Options) (*Result, error) {
	req := g.buildRequest(messages, opts)
	completion, err := g.provider.Stream(ctx, req, onChunk)
	if err != nil {
		return nil, err
	}
	requestsTotal.WithLabelValues("stream").Inc()
	return g.account(req.Model, completion), nil
}

// BatchGenerate executes N prompts in fixed-size groups. Requests within a
// group run concurrently; between groups the gateway sleeps a fixed delay.
// This is a fixed-window throttle, not an adaptive one.
func (g *Gateway) BatchGenerate(ctx context.Context, prompts []string, opts Options) ([]*Result, error) {
	results := make([]*Result, len(prompts))
	errs := make([]error, len(prompts))

	for start := 0; start < len(prompts); start += g.cfg.BatchSize {
		end := start + g.cfg.BatchSize
		if end > len(prompts) {
			end = len(prompts)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = g.GenerateText(ctx, prompts[i], opts)
			}(i)
		}
		wg.Wait()

		for i := start; i < end; i++ {
			if errs[i] != nil {
				return nil, errs[i]
			}
		}

		if end < len(prompts) {
			select {
			case <-time.After(g.cfg.BatchDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return results, nil
}

// GenerateEmbedding returns a dense vector for the text.
func (g *Gateway) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vec, err := g.provider.Embed(ctx, g.cfg.EmbedModel, text)
	if err != nil {
		return nil, err
	}
	requestsTotal.WithLabelValues("embed").Inc()
	return vec, nil
}

func (g *Gateway) buildRequest(messages []llm.Message, opts Options) llm.CompletionRequest {
	req := llm.CompletionRequest{
		Model:       g.cfg.Model,
		Messages:    messages,
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	}
	if opts.Model != "" {
		req.Model = opts.Model
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	return req
}

// account computes cost, updates counters and wraps the completion.
func (g *Gateway) account(model string, c *llm.Completion) *Result {
	cost := costFor(model, c.Usage)

	tokensTotal.WithLabelValues("prompt").Add(float64(c.Usage.PromptTokens))
	tokensTotal.WithLabelValues("completion").Add(float64(c.Usage.CompletionTokens))
	costTotal.Add(cost)

	g.mu.Lock()
	g.totalCost += cost
	g.mu.Unlock()

	return &Result{Text: c.Content, Usage: c.Usage, CostUSD: cost, Model: model}
}

// cacheKey hashes the serialized request (full message list including any
// injected system prompt, model, temperature, maxTokens). Identical inputs
// always produce identical keys.
func cacheKey(req llm.CompletionRequest) string {
	payload, _ := json.Marshal(req)
	sum := sha256.Sum256(payload)
	return "ai:" + hex.EncodeToString(sum[:])
}
