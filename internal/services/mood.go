package services

import (
	"context"
	"fmt"

	"github.com/storyarc/storyarc/internal/enrich"
	"github.com/storyarc/storyarc/internal/eventstore"
	"github.com/storyarc/storyarc/internal/model"
)

// MoodService aggregates stored sentiment into period-bucketed mood
// timelines. It reads whatever enrichment previous generation runs have
// persisted; events without sentiment are skipped by the aggregation.
type MoodService struct {
	store eventstore.Store
}

func NewMoodService(s eventstore.Store) *MoodService {
	return &MoodService{store: s}
}

func (s *MoodService) MoodTimeline(ctx context.Context, userID string, period model.MoodPeriod) (*model.MoodTimeline, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", model.ErrValidation)
	}
	if period == "" {
		period = model.MoodWeekly
	}
	if !period.Valid() {
		return nil, fmt.Errorf("%w: unknown period %q", model.ErrValidation, period)
	}

	events, err := s.store.Events().Fetch(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	return enrich.BuildMoodTimeline(userID, events, period), nil
}
