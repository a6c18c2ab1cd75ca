package gateway

import "github.com/storyarc/storyarc/internal/llm"

// ModelPrice is the static per-1K-token rate for one model.
type ModelPrice struct {
	InputPer1K  float64
	OutputPer1K float64
}

// defaultPriceModel is used when the active model has no table entry.
const defaultPriceModel = "gpt-4o-mini"

// priceTable is a static snapshot; unknown models fall back to
// defaultPriceModel's rates rather than billing zero.
var priceTable = map[string]ModelPrice{
	"gpt-4o":                 {InputPer1K: 0.0025, OutputPer1K: 0.01},
	"gpt-4o-mini":            {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	"gpt-4-turbo":            {InputPer1K: 0.01, OutputPer1K: 0.03},
	"gpt-3.5-turbo":          {InputPer1K: 0.0005, OutputPer1K: 0.0015},
	"claude-3-5-sonnet":      {InputPer1K: 0.003, OutputPer1K: 0.015},
	"claude-3-5-haiku":       {InputPer1K: 0.0008, OutputPer1K: 0.004},
	"text-embedding-3-small": {InputPer1K: 0.00002, OutputPer1K: 0},
}

// costFor computes the dollar cost of one completion from the price table.
func costFor(model string, usage llm.Usage) float64 {
	price, ok := priceTable[model]
	if !ok {
		price = priceTable[defaultPriceModel]
	}
	return float64(usage.PromptTokens)/1000*price.InputPer1K +
		float64(usage.CompletionTokens)/1000*price.OutputPer1K
}
