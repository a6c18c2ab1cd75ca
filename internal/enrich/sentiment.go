package enrich

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/storyarc/storyarc/internal/gateway"
	"github.com/storyarc/storyarc/internal/model"
)

// SentimentAnalyzer assigns VAD affect vectors in fixed-size batches.
type SentimentAnalyzer struct {
	gw  TextGenerator
	log zerolog.Logger
}

// NewSentimentAnalyzer wires a SentimentAnalyzer onto the gateway.
func NewSentimentAnalyzer(gw TextGenerator, log zerolog.Logger) *SentimentAnalyzer {
	return &SentimentAnalyzer{gw: gw, log: log.With().Str("component", "sentiment").Logger()}
}

// neutralSentiment is the documented default for unparseable batches.
func neutralSentiment() model.Sentiment {
	return model.Sentiment{PrimaryEmotion: "neutral", Confidence: 0}
}

// AnalyzeBatch returns a clamped sentiment per event id. Values outside their
// declared ranges are forced in regardless of what the model returned.
// Backend failures propagate; parse failures degrade the batch to neutral.
func (a *SentimentAnalyzer) AnalyzeBatch(ctx context.Context, events []model.TimelineEvent) (map[string]model.Sentiment, error) {
	out := make(map[string]model.Sentiment, len(events))

	for start := 0; start < len(events); start += batchSize {
		end := start + batchSize
		if end > len(events) {
			end = len(events)
		}
		batch := events[start:end]

		res, err := a.gw.GenerateText(ctx, sentimentPrompt(batch), gateway.Options{
			SystemPrompt: sentimentSystemPrompt,
		})
		if err != nil {
			return nil, fmt.Errorf("sentiment batch %d-%d: %w", start, end-1, err)
		}

		items, ok := parseBatchArray[model.Sentiment](res.Text, len(batch))
		if !ok {
			a.log.Warn().Int("batch_start", start).Int("batch_len", len(batch)).
				Msg("unparseable sentiment response; applying neutral fallback")
			for _, ev := range batch {
				out[ev.ID] = neutralSentiment()
			}
			continue
		}

		for i, ev := range batch {
			out[ev.ID] = items[i].Clamped()
		}
	}
	return out, nil
}
