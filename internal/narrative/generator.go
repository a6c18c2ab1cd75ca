// Package narrative turns segmented chapters into the final biography text
// through the AI gateway: introduction, per-chapter prose with media
// placement, and conclusion, generated strictly in order.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/storyarc/storyarc/internal/gateway"
	"github.com/storyarc/storyarc/internal/model"
)

// fallbackWordCount is the placeholder word count on the templated fallback
// narrative path.
const fallbackWordCount = 100

// TextGenerator is the slice of the AI gateway the generator needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, opts gateway.Options) (*gateway.Result, error)
}

// Generator produces biography text.
type Generator struct {
	gw  TextGenerator
	log zerolog.Logger
	now func() time.Time
}

// NewGenerator wires a Generator onto the gateway.
func NewGenerator(gw TextGenerator, log zerolog.Logger) *Generator {
	return &Generator{
		gw:  gw,
		log: log.With().Str("component", "narrative").Logger(),
		now: time.Now,
	}
}

// GenerateBiography runs introduction, chapters and conclusion sequentially.
// Chapters are processed in given order with no parallelism: ordering and
// cost stay deterministic and the backend sees no burst. A failed chapter
// call degrades to a templated narrative; intro/conclusion failures
// propagate to the caller's retry policy.
func (g *Generator) GenerateBiography(ctx context.Context, chapters []model.BiographyChapter, tl *model.Timeline, style model.BiographyStyle, includeMedia bool) (*model.Biography, error) {
	started := g.now()
	sys := templateFor(style).system
	byID := eventIndex(tl)

	var cost float64
	addCost := func(res *gateway.Result) {
		if !res.Cached {
			cost += res.CostUSD
		}
	}

	intro, err := g.gw.GenerateText(ctx, introductionPrompt(style, tl, chapters), gateway.Options{SystemPrompt: sys})
	if err != nil {
		return nil, fmt.Errorf("generate introduction: %w", err)
	}
	addCost(intro)

	totalWords := wordCount(intro.Text)
	narratives := make([]model.ChapterNarrative, 0, len(chapters))

	for _, ch := range chapters {
		events := resolveEvents(byID, ch.EventIDs)

		var text string
		wc := 0
		res, err := g.gw.GenerateText(ctx, chapterPrompt(style, ch, events), gateway.Options{SystemPrompt: sys})
		if err != nil {
			g.log.Warn().Err(err).Str("chapter_id", ch.ID).Msg("chapter narrative failed; using template")
			text = fallbackNarrative(ch)
			wc = fallbackWordCount
		} else {
			addCost(res)
			text = res.Text
			wc = wordCount(text)
		}
		totalWords += wc

		cn := model.ChapterNarrative{
			ChapterID: ch.ID,
			Title:     ch.Title,
			Narrative: text,
			WordCount: wc,
		}
		if includeMedia {
			cn.MediaMatches = matchMedia(text, events)
		}
		narratives = append(narratives, cn)
	}

	conclusion, err := g.gw.GenerateText(ctx, conclusionPrompt(style, chapters), gateway.Options{SystemPrompt: sys})
	if err != nil {
		return nil, fmt.Errorf("generate conclusion: %w", err)
	}
	addCost(conclusion)
	totalWords += wordCount(conclusion.Text)

	generatedAt := g.now()
	return &model.Biography{
		ID:           uuid.New().String(),
		UserID:       tl.UserID,
		Title:        biographyTitle(style, tl.StartDate.Year(), tl.EndDate.Year()),
		Style:        style,
		Chapters:     narratives,
		Introduction: intro.Text,
		Conclusion:   conclusion.Text,
		Metadata: model.BiographyMetadata{
			TotalWords:     totalWords,
			TotalChapters:  len(narratives),
			GeneratedAt:    generatedAt,
			CostUSD:        cost,
			GenerationTime: generatedAt.Sub(started),
		},
	}, nil
}

type titleSummary struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// TitleAndSummary generates a chapter title and summary in one call. It
// satisfies the segmentation engine's TitleSummarizer contract; callers fall
// back to templates on error.
func (g *Generator) TitleAndSummary(ctx context.Context, events []model.TimelineEvent, dominant model.Category) (string, string, error) {
	res, err := g.gw.GenerateText(ctx, titleSummaryPrompt(events, dominant), gateway.Options{
		SystemPrompt: "You are a book editor. Respond with strict JSON only.",
	})
	if err != nil {
		return "", "", err
	}

	var ts titleSummary
	cleaned := strings.TrimSpace(res.Text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	if err := json.Unmarshal([]byte(cleaned), &ts); err != nil {
		return "", "", fmt.Errorf("decode title/summary: %w", err)
	}
	if ts.Title == "" {
		return "", "", fmt.Errorf("empty title in response")
	}
	return ts.Title, ts.Summary, nil
}

// fallbackNarrative is the templated one-sentence stand-in when generation
// fails for a chapter.
func fallbackNarrative(ch model.BiographyChapter) string {
	return fmt.Sprintf("Between %s and %s, this chapter of life unfolded. %s",
		ch.StartDate.Format("January 2006"), ch.EndDate.Format("January 2006"), ch.Summary)
}

func eventIndex(tl *model.Timeline) map[string]model.TimelineEvent {
	byID := make(map[string]model.TimelineEvent, len(tl.Events))
	for _, ev := range tl.Events {
		byID[ev.ID] = ev
	}
	return byID
}

func resolveEvents(byID map[string]model.TimelineEvent, ids []string) []model.TimelineEvent {
	out := make([]model.TimelineEvent, 0, len(ids))
	for _, id := range ids {
		if ev, ok := byID[id]; ok {
			out = append(out, ev)
		}
	}
	return out
}

func wordCount(s string) int { return len(strings.Fields(s)) }
