package enrich

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/storyarc/storyarc/internal/model"
)

const categorizationSystemPrompt = `You are a life-event classifier. You respond with strict JSON only: no prose, no markdown fences.`

const sentimentSystemPrompt = `You are an affect analyst. You respond with strict JSON only: no prose, no markdown fences.`

// contentSnippetLimit bounds per-event text inside a batch prompt.
const contentSnippetLimit = 280

func categorizationPrompt(events []model.TimelineEvent) string {
	var b strings.Builder
	b.WriteString("Classify each life event below. Respond with a JSON array of exactly ")
	fmt.Fprintf(&b, "%d objects, in the same order as the input, each shaped ", len(events))
	b.WriteString(`{"category": string, "tags": [string], "confidence": number}.` + "\n")
	b.WriteString("Valid categories: EDUCATION, CAREER, FAMILY, RELATIONSHIPS, TRAVEL, HEALTH, HOBBIES, SIGNIFICANT_EVENTS, DAILY_LIFE, OTHER.\n\n")
	writeEventLines(&b, events)
	return b.String()
}

func sentimentPrompt(events []model.TimelineEvent) string {
	var b strings.Builder
	b.WriteString("Rate the emotional tone of each life event below. Respond with a JSON array of exactly ")
	fmt.Fprintf(&b, "%d objects, in the same order as the input, each shaped ", len(events))
	b.WriteString(`{"valence": number in [-1,1], "arousal": number in [0,1], "dominance": number in [0,1], "primaryEmotion": string, "confidence": number in [0,1]}.` + "\n\n")
	writeEventLines(&b, events)
	return b.String()
}

func writeEventLines(b *strings.Builder, events []model.TimelineEvent) {
	for i, ev := range events {
		content := ev.Content
		if content == "" {
			content = "(media only)"
		}
		content = truncateSnippet(content, contentSnippetLimit)
		fmt.Fprintf(b, "%d. [%s, %s] %s\n", i+1, ev.SourceType, ev.Timestamp.Format("2006-01-02"), content)
	}
}

// truncateSnippet cuts s to at most limit bytes without splitting a rune.
func truncateSnippet(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
