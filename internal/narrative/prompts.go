package narrative

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/storyarc/storyarc/internal/model"
)

// styleTemplate pairs the per-style instruction with its system prompt.
type styleTemplate struct {
	system      string
	instruction string
}

var styleTemplates = map[model.BiographyStyle]styleTemplate{
	model.StyleChronological: {
		system:      "You are a biographer who writes clear, ordered accounts of a life, one period at a time.",
		instruction: "Write a chronological narrative of this period, moving event by event in order.",
	},
	model.StyleReflective: {
		system:      "You are a thoughtful memoirist who writes in a first-person, introspective voice.",
		instruction: "Write a reflective narrative of this period, dwelling on what these moments meant.",
	},
	model.StyleThematic: {
		system:      "You are an essayist who organizes a life around its recurring themes.",
		instruction: "Write a thematic narrative of this period, grouping the events by the threads that connect them.",
	},
	model.StyleDocumentary: {
		system:      "You are a documentary narrator: factual, precise, and restrained.",
		instruction: "Write a documentary-style narrative of this period, sticking closely to what the record shows.",
	},
	model.StyleHighlights: {
		system:      "You are an editor who distills a period of life to its most vivid moments.",
		instruction: "Write a highlights narrative of this period, focusing only on the most significant events.",
	},
}

var genericTemplate = styleTemplate{
	system:      "You are a skilled biographer.",
	instruction: "Write a narrative of this period of the subject's life.",
}

func templateFor(style model.BiographyStyle) styleTemplate {
	if t, ok := styleTemplates[style]; ok {
		return t
	}
	return genericTemplate
}

const eventSnippetLimit = 240

func chapterPrompt(style model.BiographyStyle, ch model.BiographyChapter, events []model.TimelineEvent) string {
	t := templateFor(style)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nChapter: %s (%s to %s), dominant theme %s.\nEvents:\n",
		t.instruction, ch.Title,
		ch.StartDate.Format("January 2006"), ch.EndDate.Format("January 2006"),
		ch.DominantCategory)
	writeEventLines(&b, events)
	b.WriteString("\nWrite 2-4 paragraphs of flowing prose. Do not list the events; weave them together.")
	return b.String()
}

func introductionPrompt(style model.BiographyStyle, tl *model.Timeline, chapters []model.BiographyChapter) string {
	t := templateFor(style)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nWrite an introduction for a biography spanning %s to %s across %d chapters:\n",
		t.instruction, tl.StartDate.Format("2006"), tl.EndDate.Format("2006"), len(chapters))
	for _, ch := range chapters {
		fmt.Fprintf(&b, "- %s: %s\n", ch.Title, ch.Summary)
	}
	b.WriteString("\nOne or two paragraphs that set the stage without retelling the chapters.")
	return b.String()
}

func conclusionPrompt(style model.BiographyStyle, chapters []model.BiographyChapter) string {
	t := templateFor(style)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nWrite a conclusion for a biography of %d chapters:\n", t.instruction, len(chapters))
	for _, ch := range chapters {
		fmt.Fprintf(&b, "- %s: %s\n", ch.Title, ch.Summary)
	}
	b.WriteString("\nOne closing paragraph that draws the threads together.")
	return b.String()
}

func titleSummaryPrompt(events []model.TimelineEvent, dominant model.Category) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Given these life events with dominant theme %s, respond with strict JSON shaped "+
		`{"title": string, "summary": string}`+
		" - a short evocative chapter title and a 1-2 sentence summary.\nEvents:\n", dominant)
	writeEventLines(&b, events)
	return b.String()
}

func writeEventLines(b *strings.Builder, events []model.TimelineEvent) {
	for _, ev := range events {
		content := ev.Content
		if content == "" {
			content = "(media only)"
		}
		content = truncateSnippet(content, eventSnippetLimit)
		fmt.Fprintf(b, "- [%s] %s\n", ev.Timestamp.Format("2006-01-02"), content)
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
