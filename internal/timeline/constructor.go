// Package timeline builds the ordered event timeline with derived clusters
// and gaps. It is the first pipeline stage; every downstream stage relies on
// the strictly ascending event order established here.
package timeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/storyarc/storyarc/internal/eventstore"
	"github.com/storyarc/storyarc/internal/model"
)

const (
	// clusterGapThreshold closes a cluster once adjacent events are further
	// apart than this.
	clusterGapThreshold = 24 * time.Hour
	// clusterMinSize discards clusters smaller than this.
	clusterMinSize = 3
	// gapThreshold records a TimelineGap for silences at least this long.
	gapThreshold = 30 * 24 * time.Hour
)

// Constructor fetches a user's events and assembles the timeline.
type Constructor struct {
	events eventstore.Events
	log    zerolog.Logger
	now    func() time.Time
}

// NewConstructor wires a Constructor onto an event source.
func NewConstructor(events eventstore.Events, log zerolog.Logger) *Constructor {
	return &Constructor{
		events: events,
		log:    log.With().Str("component", "timeline").Logger(),
		now:    time.Now,
	}
}

// Construct fetches all events for the user, sorts them ascending by
// timestamp (stable, so fetch order breaks ties deterministically) and
// derives clusters and gaps. Store failures propagate unchanged.
func (c *Constructor) Construct(ctx context.Context, userID string) (*model.Timeline, error) {
	events, err := c.events.Fetch(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch events for %s: %w", userID, err)
	}

	tl := &model.Timeline{UserID: userID, Events: events}

	if len(events) == 0 {
		now := c.now()
		tl.StartDate = now
		tl.EndDate = now
		return tl, nil
	}

	sort.SliceStable(tl.Events, func(i, j int) bool {
		return tl.Events[i].Timestamp.Before(tl.Events[j].Timestamp)
	})

	tl.StartDate = tl.Events[0].Timestamp
	tl.EndDate = tl.Events[len(tl.Events)-1].Timestamp
	tl.Clusters = deriveClusters(tl.Events)
	tl.Gaps = deriveGaps(tl.Events)

	c.log.Debug().
		Str("user_id", userID).
		Int("events", len(tl.Events)).
		Int("clusters", len(tl.Clusters)).
		Int("gaps", len(tl.Gaps)).
		Msg("timeline constructed")

	return tl, nil
}

// deriveClusters walks the sorted events accumulating runs whose adjacent
// gaps stay within clusterGapThreshold. Runs below clusterMinSize are
// dropped silently.
func deriveClusters(events []model.TimelineEvent) []model.TimelineCluster {
	var clusters []model.TimelineCluster
	start := 0

	closeRun := func(end int) { // end inclusive
		size := end - start + 1
		if size < clusterMinSize {
			return
		}
		ids := make([]string, 0, size)
		for i := start; i <= end; i++ {
			ids = append(ids, events[i].ID)
		}
		clusters = append(clusters, model.TimelineCluster{
			ID:           uuid.New().String(),
			StartDate:    events[start].Timestamp,
			EndDate:      events[end].Timestamp,
			StartIndex:   start,
			EndIndex:     end,
			EventIDs:     ids,
			Significance: size,
		})
	}

	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Sub(events[i-1].Timestamp) > clusterGapThreshold {
			closeRun(i - 1)
			start = i
		}
	}
	closeRun(len(events) - 1)

	return clusters
}

// deriveGaps records every adjacent pair separated by at least gapThreshold.
func deriveGaps(events []model.TimelineEvent) []model.TimelineGap {
	var gaps []model.TimelineGap
	for i := 1; i < len(events); i++ {
		delta := events[i].Timestamp.Sub(events[i-1].Timestamp)
		if delta >= gapThreshold {
			gaps = append(gaps, model.TimelineGap{
				StartDate:    events[i-1].Timestamp,
				EndDate:      events[i].Timestamp,
				DurationDays: int(delta.Hours() / 24),
			})
		}
	}
	return gaps
}
