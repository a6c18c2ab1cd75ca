// Package llm defines the contract the biography engine requires from a
// generative-text backend, and an OpenAI-compatible implementation of it.
// All calls go through the AI gateway; nothing else in the codebase may
// talk to a backend directly.
package llm

import "context"

// Role constants for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token consumption for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionRequest is the normalized backend request shape.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Completion is the normalized backend response shape.
type Completion struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// ChunkFunc receives incremental text as it arrives on a stream.
type ChunkFunc func(chunk string) error

// Provider is the generative-text backend contract: prompt in, text plus
// token usage out, optionally streamed, plus embeddings.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
	Stream(ctx context.Context, req CompletionRequest, onChunk ChunkFunc) (*Completion, error)
	Embed(ctx context.Context, model, text string) ([]float32, error)
}
