// Package pipeline chains the five biography generation stages into one
// cancellable, progress-reporting unit of work. Stages run strictly
// sequentially; a retry re-executes the whole chain from the first stage.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/storyarc/storyarc/internal/enrich"
	"github.com/storyarc/storyarc/internal/eventstore"
	"github.com/storyarc/storyarc/internal/model"
	"github.com/storyarc/storyarc/internal/narrative"
	"github.com/storyarc/storyarc/internal/segment"
	"github.com/storyarc/storyarc/internal/timeline"
)

// Progress checkpoints, in pipeline order.
const (
	progressTimeline  = 10
	progressEnriched  = 30
	progressSentiment = 50
	progressChapters  = 70
	progressNarrative = 90
	progressComplete  = 100
)

// Pipeline executes one generation run. All collaborators are injected so
// tests can substitute fakes.
type Pipeline struct {
	store       eventstore.Store
	constructor *timeline.Constructor
	categorizer *enrich.Categorizer
	sentiment   *enrich.SentimentAnalyzer
	segmenter   *segment.Engine
	narrator    *narrative.Generator
	log         zerolog.Logger
}

// New wires a Pipeline from its stage components.
func New(store eventstore.Store, constructor *timeline.Constructor, categorizer *enrich.Categorizer, sentiment *enrich.SentimentAnalyzer, segmenter *segment.Engine, narrator *narrative.Generator, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:       store,
		constructor: constructor,
		categorizer: categorizer,
		sentiment:   sentiment,
		segmenter:   segmenter,
		narrator:    narrator,
		log:         log.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes all stages for one request and persists the resulting
// biography. progress is best-effort and may be nil. A Biography is only
// ever produced whole, at 100% progress.
func (p *Pipeline) Run(ctx context.Context, req model.GenerationRequest, progress ProgressFunc) (*model.Biography, error) {
	rep := newProgressReporter(progress, p.log)

	req = normalize(req)

	tl, err := p.constructor.Construct(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("construct timeline: %w", err)
	}
	rep.report(progressTimeline)

	if len(tl.Events) > 0 {
		results, err := p.categorizer.CategorizeBatch(ctx, tl.Events)
		if err != nil {
			return nil, fmt.Errorf("categorize events: %w", err)
		}
		p.applyCategorization(ctx, tl, results)
	}
	rep.report(progressEnriched)

	if req.Options.IncludeSentiment && len(tl.Events) > 0 {
		sentiments, err := p.sentiment.AnalyzeBatch(ctx, tl.Events)
		if err != nil {
			return nil, fmt.Errorf("analyze sentiment: %w", err)
		}
		p.applySentiment(ctx, tl, sentiments)
		rep.report(progressSentiment)
	}

	chapters, err := p.segmenter.GenerateChapters(ctx, tl, req.Options.Chapters)
	if err != nil {
		return nil, fmt.Errorf("generate chapters: %w", err)
	}
	rep.report(progressChapters)

	var bio *model.Biography
	if len(chapters) == 0 {
		// Insufficient events is an input-data condition, not a failure:
		// produce a minimal biography without any backend calls.
		bio = emptyBiography(tl, req.Style)
	} else {
		bio, err = p.narrator.GenerateBiography(ctx, chapters, tl, req.Style, req.Options.IncludeMedia)
		if err != nil {
			return nil, fmt.Errorf("generate narrative: %w", err)
		}
	}
	rep.report(progressNarrative)

	if err := p.store.Biographies().Save(ctx, bio); err != nil {
		return nil, fmt.Errorf("save biography: %w", err)
	}
	rep.report(progressComplete)

	p.log.Info().
		Str("user_id", req.UserID).
		Str("biography_id", bio.ID).
		Int("chapters", bio.Metadata.TotalChapters).
		Int("words", bio.Metadata.TotalWords).
		Float64("cost_usd", bio.Metadata.CostUSD).
		Msg("biography generated")

	return bio, nil
}

// applyCategorization mutates events in place and persists the enrichment
// best-effort; a write failure degrades durability, not the run.
func (p *Pipeline) applyCategorization(ctx context.Context, tl *model.Timeline, results map[string]enrich.CategorizationResult) {
	for i := range tl.Events {
		res, ok := results[tl.Events[i].ID]
		if !ok {
			continue
		}
		c := res.Category
		tl.Events[i].Category = &c
		tl.Events[i].Tags = res.Tags

		if err := p.store.Events().UpdateEnrichment(ctx, tl.UserID, tl.Events[i].ID, res.Category, res.Tags, nil); err != nil {
			p.log.Warn().Err(err).Str("event_id", tl.Events[i].ID).Msg("persist categorization failed")
		}
	}
}

func (p *Pipeline) applySentiment(ctx context.Context, tl *model.Timeline, sentiments map[string]model.Sentiment) {
	for i := range tl.Events {
		s, ok := sentiments[tl.Events[i].ID]
		if !ok {
			continue
		}
		sc := s
		tl.Events[i].Sentiment = &sc

		cat := model.CategoryOther
		if tl.Events[i].Category != nil {
			cat = *tl.Events[i].Category
		}
		if err := p.store.Events().UpdateEnrichment(ctx, tl.UserID, tl.Events[i].ID, cat, tl.Events[i].Tags, &sc); err != nil {
			p.log.Warn().Err(err).Str("event_id", tl.Events[i].ID).Msg("persist sentiment failed")
		}
	}
}

func normalize(req model.GenerationRequest) model.GenerationRequest {
	if req.Style == "" {
		req.Style = model.StyleChronological
	}
	def := model.DefaultChapterOptions()
	if req.Options.Chapters.MinEventsPerChapter <= 0 {
		req.Options.Chapters.MinEventsPerChapter = def.MinEventsPerChapter
	}
	if req.Options.Chapters.MaxEventsPerChapter <= 0 {
		req.Options.Chapters.MaxEventsPerChapter = def.MaxEventsPerChapter
	}
	if req.Options.Chapters.MinChapterDurationDays <= 0 {
		req.Options.Chapters.MinChapterDurationDays = def.MinChapterDurationDays
	}
	if req.Options.Chapters.MaxChapterDurationDays <= 0 {
		req.Options.Chapters.MaxChapterDurationDays = def.MaxChapterDurationDays
	}
	return req
}
