package timeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/storyarc/storyarc/internal/model"
)

type fakeEvents struct {
	events []model.TimelineEvent
	err    error
}

func (f *fakeEvents) Fetch(ctx context.Context, userID string) ([]model.TimelineEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.TimelineEvent, len(f.events))
	copy(out, f.events)
	return out, nil
}

func (f *fakeEvents) Insert(ctx context.Context, e *model.TimelineEvent) error { return nil }

func (f *fakeEvents) UpdateEnrichment(ctx context.Context, userID, eventID string, category model.Category, tags []string, sentiment *model.Sentiment) error {
	return nil
}

func ev(id string, ts time.Time) model.TimelineEvent {
	return model.TimelineEvent{ID: id, UserID: "u1", SourceType: model.SourceDiary, Timestamp: ts, Content: "event " + id}
}

func TestConstruct_SortsAscendingAndStable(t *testing.T) {
	base := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	fe := &fakeEvents{events: []model.TimelineEvent{
		ev("c", base.Add(2*time.Hour)),
		ev("a", base),
		ev("tie1", base.Add(time.Hour)),
		ev("tie2", base.Add(time.Hour)), // same timestamp, must stay after tie1
	}}

	c := NewConstructor(fe, zerolog.Nop())
	tl, err := c.Construct(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}

	want := []string{"a", "tie1", "tie2", "c"}
	for i, id := range want {
		if tl.Events[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, tl.Events[i].ID, id)
		}
	}
	if !tl.StartDate.Equal(base) || !tl.EndDate.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("date range wrong: %v .. %v", tl.StartDate, tl.EndDate)
	}
}

func TestConstruct_EmptyTimeline(t *testing.T) {
	c := NewConstructor(&fakeEvents{}, zerolog.Nop())
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return now }

	tl, err := c.Construct(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if len(tl.Events) != 0 || len(tl.Clusters) != 0 || len(tl.Gaps) != 0 {
		t.Fatalf("expected empty timeline, got %+v", tl)
	}
	if !tl.StartDate.Equal(now) || !tl.EndDate.Equal(now) {
		t.Fatalf("empty timeline range should collapse to now")
	}
}

func TestConstruct_FetchErrorPropagates(t *testing.T) {
	c := NewConstructor(&fakeEvents{err: fmt.Errorf("db down")}, zerolog.Nop())
	if _, err := c.Construct(context.Background(), "u1"); err == nil {
		t.Fatal("expected error")
	}
}

// Three events two hours apart on one day form one cluster of exactly the
// minimum size and no gaps.
func TestConstruct_SingleDayCluster(t *testing.T) {
	base := time.Date(2023, 6, 1, 9, 0, 0, 0, time.UTC)
	fe := &fakeEvents{events: []model.TimelineEvent{
		ev("e1", base),
		ev("e2", base.Add(2*time.Hour)),
		ev("e3", base.Add(4*time.Hour)),
	}}

	tl, err := NewConstructor(fe, zerolog.Nop()).Construct(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if len(tl.Clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(tl.Clusters))
	}
	cl := tl.Clusters[0]
	if len(cl.EventIDs) != 3 || cl.StartIndex != 0 || cl.EndIndex != 2 {
		t.Fatalf("unexpected cluster %+v", cl)
	}
	if len(tl.Gaps) != 0 {
		t.Fatalf("expected 0 gaps, got %d", len(tl.Gaps))
	}
}

func TestDeriveClusters_DropsRunsBelowMinimum(t *testing.T) {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	events := []model.TimelineEvent{
		ev("a1", base),
		ev("a2", base.Add(time.Hour)),
		// 48h break ends the run of two, which is below minimum
		ev("b1", base.Add(50*time.Hour)),
		ev("b2", base.Add(51*time.Hour)),
		ev("b3", base.Add(52*time.Hour)),
	}

	clusters := deriveClusters(events)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if clusters[0].StartIndex != 2 || clusters[0].EndIndex != 4 {
		t.Fatalf("unexpected cluster indices %+v", clusters[0])
	}
}

func TestDeriveGaps_ThresholdIsInclusive(t *testing.T) {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []model.TimelineEvent{
		ev("a", base),
		ev("b", base.AddDate(0, 0, 29)), // below threshold
		ev("c", base.AddDate(0, 0, 59)), // exactly 30 days after b
	}

	gaps := deriveGaps(events)
	if len(gaps) != 1 {
		t.Fatalf("expected 1 gap, got %d", len(gaps))
	}
	if gaps[0].DurationDays != 30 {
		t.Fatalf("expected 30 day gap, got %d", gaps[0].DurationDays)
	}
}

func TestDeriveGaps_LongSilence(t *testing.T) {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []model.TimelineEvent{
		ev("a", base),
		ev("b", base.AddDate(1, 0, 0)),
	}
	gaps := deriveGaps(events)
	if len(gaps) != 1 || gaps[0].DurationDays < 365 {
		t.Fatalf("expected a year-long gap, got %+v", gaps)
	}
}
