// Package enrich annotates timeline events with category labels and affect
// vectors through the AI gateway, and aggregates sentiment into a mood
// timeline. Malformed model output is always absorbed locally: a bad batch
// degrades to documented fallback values, never to a pipeline failure.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/storyarc/storyarc/internal/gateway"
	"github.com/storyarc/storyarc/internal/model"
)

// batchSize bounds prompt size; each batch is one gateway call.
const batchSize = 10

// CategorizationResult is an explicit success-or-fallback variant. Fallback
// is part of the type so callers can see the decision without exception-style
// control flow.
type CategorizationResult struct {
	Category   model.Category `json:"category"`
	Tags       []string       `json:"tags"`
	Confidence float64        `json:"confidence"`
	Fallback   bool           `json:"fallback"`
}

// FallbackResult is the documented default when a batch cannot be parsed.
func FallbackResult() CategorizationResult {
	return CategorizationResult{
		Category:   model.CategoryOther,
		Tags:       []string{},
		Confidence: 0,
		Fallback:   true,
	}
}

// Categorizer assigns category labels and tags in fixed-size batches.
type Categorizer struct {
	gw  TextGenerator
	log zerolog.Logger
}

// TextGenerator is the slice of the AI gateway the enrichers need.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, opts gateway.Options) (*gateway.Result, error)
}

// NewCategorizer wires a Categorizer onto the gateway.
func NewCategorizer(gw TextGenerator, log zerolog.Logger) *Categorizer {
	return &Categorizer{gw: gw, log: log.With().Str("component", "categorizer").Logger()}
}

type categoryItem struct {
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	Confidence float64  `json:"confidence"`
}

// CategorizeBatch annotates every event and returns results keyed by event
// id. Backend call failures propagate (the job retry policy owns them);
// malformed responses degrade that batch to FallbackResult and continue.
func (c *Categorizer) CategorizeBatch(ctx context.Context, events []model.TimelineEvent) (map[string]CategorizationResult, error) {
	out := make(map[string]CategorizationResult, len(events))

	for start := 0; start < len(events); start += batchSize {
		end := start + batchSize
		if end > len(events) {
			end = len(events)
		}
		batch := events[start:end]

		res, err := c.gw.GenerateText(ctx, categorizationPrompt(batch), gateway.Options{
			SystemPrompt: categorizationSystemPrompt,
		})
		if err != nil {
			return nil, fmt.Errorf("categorize batch %d-%d: %w", start, end-1, err)
		}

		items, ok := parseBatchArray[categoryItem](res.Text, len(batch))
		if !ok {
			c.log.Warn().Int("batch_start", start).Int("batch_len", len(batch)).
				Msg("unparseable categorization response; applying fallback")
			for _, ev := range batch {
				out[ev.ID] = FallbackResult()
			}
			continue
		}

		for i, ev := range batch {
			out[ev.ID] = CategorizationResult{
				Category:   model.ParseCategory(items[i].Category),
				Tags:       nonNil(items[i].Tags),
				Confidence: items[i].Confidence,
			}
		}
	}
	return out, nil
}

// parseBatchArray strips code-fence markup and decodes a JSON array expected
// to align positionally with the batch. Length mismatch counts as failure.
func parseBatchArray[T any](text string, want int) ([]T, bool) {
	var items []T
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &items); err != nil {
		return nil, false
	}
	if len(items) != want {
		return nil, false
	}
	return items, true
}

// stripCodeFence removes surrounding ``` markup the model may wrap JSON in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop a language hint like "json" on the opening fence line.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first != "" && !strings.HasPrefix(first, "[") && !strings.HasPrefix(first, "{") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
