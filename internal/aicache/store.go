// Package aicache is the cache store used by the AI gateway for
// content-addressed response reuse. Keys are opaque strings; values carry
// the completion text plus its token usage and cost so a cache hit is
// indistinguishable in shape from a live call.
package aicache

import (
	"context"
	"time"

	"github.com/storyarc/storyarc/internal/llm"
)

// Entry is one cached completion.
type Entry struct {
	Content string    `json:"content"`
	Usage   llm.Usage `json:"usage"`
	CostUSD float64   `json:"costUsd"`
}

// Store is the cache contract: get, set-with-TTL, delete-by-pattern.
type Store interface {
	// Get returns the entry and true on a live hit; expired entries are
	// treated as absent.
	Get(ctx context.Context, key string) (*Entry, bool, error)
	Set(ctx context.Context, key string, e *Entry, ttl time.Duration) error
	// DeletePattern removes every key matching the glob pattern ("ai:*").
	DeletePattern(ctx context.Context, pattern string) error
}
