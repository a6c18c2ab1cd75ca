package segment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/storyarc/storyarc/internal/model"
)

// TitleSummarizer produces an AI title and summary for a chapter's events.
// The narrative generator implements it; segmentation only depends on the
// contract so the two packages stay decoupled.
type TitleSummarizer interface {
	TitleAndSummary(ctx context.Context, events []model.TimelineEvent, dominant model.Category) (title, summary string, err error)
}

// Engine assembles chapters from scored boundaries.
type Engine struct {
	titler TitleSummarizer
	log    zerolog.Logger
}

// NewEngine wires the segmentation engine. titler may be nil when AI titles
// are disabled.
func NewEngine(titler TitleSummarizer, log zerolog.Logger) *Engine {
	return &Engine{titler: titler, log: log.With().Str("component", "segment").Logger()}
}

// GenerateChapters slices the timeline into chapters. Slices shorter than
// MinEventsPerChapter are not emitted; their events stay in the accumulation
// window for the next cut. Slices longer than MaxEventsPerChapter are split.
func (e *Engine) GenerateChapters(ctx context.Context, tl *model.Timeline, opts model.ChapterOptions) ([]model.BiographyChapter, error) {
	if len(tl.Events) == 0 {
		return nil, nil
	}

	candidates := scoreBoundaries(tl.Events, opts)
	cuts := filterBoundaries(candidates)

	e.log.Debug().
		Int("events", len(tl.Events)).
		Int("candidates", len(candidates)).
		Int("cuts", len(cuts)).
		Msg("boundaries scored")

	var chapters []model.BiographyChapter
	start := 0
	emit := func(lo, hi int) error { // hi exclusive
		for lo < hi {
			sz := hi - lo
			if opts.MaxEventsPerChapter > 0 && sz > opts.MaxEventsPerChapter {
				sz = opts.MaxEventsPerChapter
				// A split must never strand a tail below the minimum;
				// shrink this chunk so the remainder can stand alone. If no
				// valid split exists the slice stays whole: an oversized
				// chapter beats an undersized one.
				if rest := hi - lo - sz; rest > 0 && rest < opts.MinEventsPerChapter {
					sz = hi - lo - opts.MinEventsPerChapter
					if sz < opts.MinEventsPerChapter {
						sz = hi - lo
					}
				}
			}
			ch, err := e.buildChapter(ctx, tl.Events[lo:lo+sz], opts)
			if err != nil {
				return err
			}
			chapters = append(chapters, ch)
			lo += sz
		}
		return nil
	}

	for _, cut := range cuts {
		if cut.Index-start < opts.MinEventsPerChapter {
			// Too small to stand alone; absorb into the next window.
			continue
		}
		if err := emit(start, cut.Index); err != nil {
			return nil, err
		}
		start = cut.Index
	}
	if len(tl.Events)-start >= opts.MinEventsPerChapter {
		if err := emit(start, len(tl.Events)); err != nil {
			return nil, err
		}
	}

	return chapters, nil
}

func (e *Engine) buildChapter(ctx context.Context, events []model.TimelineEvent, opts model.ChapterOptions) (model.BiographyChapter, error) {
	first, last := events[0], events[len(events)-1]
	dominant := dominantCategory(events)
	durationDays := int(last.Timestamp.Sub(first.Timestamp).Hours() / 24)

	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}

	ch := model.BiographyChapter{
		ID:               uuid.New().String(),
		StartDate:        first.Timestamp,
		EndDate:          last.Timestamp,
		EventIDs:         ids,
		DominantCategory: dominant,
		Significance:     len(events),
		Metadata: model.ChapterMetadata{
			EventCount:   len(events),
			DurationDays: durationDays,
		},
	}

	if opts.UseAI && e.titler != nil {
		title, summary, err := e.titler.TitleAndSummary(ctx, events, dominant)
		if err == nil {
			ch.Title = title
			ch.Summary = summary
			ch.Metadata.AIGenerated = true
			ch.Metadata.Confidence = 0.9
			return ch, nil
		}
		e.log.Warn().Err(err).Str("chapter_id", ch.ID).Msg("AI title failed; using template")
	}

	ch.Title = templateTitle(dominant, first.Timestamp.Year())
	ch.Summary = templateSummary(dominant, len(events), first.Timestamp.Year(), last.Timestamp.Year())
	ch.Metadata.Confidence = 0.6
	return ch, nil
}

// dominantCategory is the mode across events; ties break in favor of the
// first category encountered. Unenriched events count as OTHER.
func dominantCategory(events []model.TimelineEvent) model.Category {
	counts := make(map[model.Category]int)
	var order []model.Category
	for _, ev := range events {
		c := model.CategoryOther
		if ev.Category != nil {
			c = *ev.Category
		}
		if counts[c] == 0 {
			order = append(order, c)
		}
		counts[c]++
	}

	best := model.CategoryOther
	bestN := 0
	for _, c := range order {
		if counts[c] > bestN {
			best = c
			bestN = counts[c]
		}
	}
	return best
}

var titleWords = map[model.Category]string{
	model.CategoryEducation:         "Learning Years",
	model.CategoryCareer:            "Working Life",
	model.CategoryFamily:            "Family Times",
	model.CategoryRelationships:     "Close Connections",
	model.CategoryTravel:            "On the Road",
	model.CategoryHealth:            "Body and Mind",
	model.CategoryHobbies:           "Passions and Pastimes",
	model.CategorySignificantEvents: "Turning Points",
	model.CategoryDailyLife:         "Everyday Moments",
	model.CategoryOther:             "A Chapter of Life",
}

func templateTitle(c model.Category, startYear int) string {
	w, ok := titleWords[c]
	if !ok {
		w = titleWords[model.CategoryOther]
	}
	return fmt.Sprintf("%s, %d", w, startYear)
}

func templateSummary(c model.Category, eventCount, startYear, endYear int) string {
	span := fmt.Sprintf("%d", startYear)
	if endYear != startYear {
		span = fmt.Sprintf("%d to %d", startYear, endYear)
	}
	return fmt.Sprintf("A period from %s centered on %s, drawn from %d recorded moments.", span, c, eventCount)
}
