package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/storyarc/storyarc/internal/eventstore"
	"github.com/storyarc/storyarc/internal/jobqueue"
	"github.com/storyarc/storyarc/internal/model"
	"github.com/storyarc/storyarc/internal/pipeline"
)

type stubRunner struct{}

func (stubRunner) Run(ctx context.Context, req model.GenerationRequest, progress pipeline.ProgressFunc) (*model.Biography, error) {
	return &model.Biography{ID: "bio-1", UserID: req.UserID, Title: "t"}, nil
}

type stubStore struct {
	events eventstore.Events
	bios   eventstore.Biographies
}

func (s *stubStore) Events() eventstore.Events           { return s.events }
func (s *stubStore) Biographies() eventstore.Biographies { return s.bios }

type stubEvents struct {
	fetch []model.TimelineEvent
	err   error
}

func (s *stubEvents) Fetch(ctx context.Context, userID string) ([]model.TimelineEvent, error) {
	return s.fetch, s.err
}
func (s *stubEvents) Insert(ctx context.Context, e *model.TimelineEvent) error { return nil }
func (s *stubEvents) UpdateEnrichment(ctx context.Context, userID, eventID string, category model.Category, tags []string, sentiment *model.Sentiment) error {
	return nil
}

type stubBiographies struct {
	byID *model.Biography
	err  error
}

func (s *stubBiographies) Save(ctx context.Context, b *model.Biography) error { return nil }
func (s *stubBiographies) GetByID(ctx context.Context, userID, biographyID string) (*model.Biography, error) {
	return s.byID, s.err
}
func (s *stubBiographies) List(ctx context.Context, userID string) ([]*model.Biography, error) {
	return nil, nil
}

func newBiographyService(t *testing.T) *BiographyService {
	t.Helper()
	q := jobqueue.New(jobqueue.Config{Workers: 1}, stubRunner{}, zerolog.Nop())
	t.Cleanup(q.Stop)
	return NewBiographyService(&stubStore{events: &stubEvents{}, bios: &stubBiographies{}}, q)
}

func TestSubmit_RequiresUserID(t *testing.T) {
	svc := newBiographyService(t)
	_, err := svc.Submit(context.Background(), model.GenerationRequest{})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmit_RejectsUnknownStyle(t *testing.T) {
	svc := newBiographyService(t)
	_, err := svc.Submit(context.Background(), model.GenerationRequest{UserID: "u1", Style: "surrealist"})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmit_RejectsNegativeChapterBounds(t *testing.T) {
	svc := newBiographyService(t)
	req := model.GenerationRequest{UserID: "u1"}
	req.Options.Chapters.MinEventsPerChapter = -1
	if _, err := svc.Submit(context.Background(), req); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmit_EnqueuesValidRequest(t *testing.T) {
	svc := newBiographyService(t)
	job, err := svc.Submit(context.Background(), model.GenerationRequest{UserID: "u1", Style: model.StyleReflective})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.ID == "" || job.State != model.JobQueued {
		t.Fatalf("unexpected job %+v", job)
	}

	// The snapshot eventually reflects the finished run.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if j, err := svc.JobStatus(context.Background(), job.ID); err == nil && j.State == model.JobCompleted {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never completed")
}

func TestJobStatus_UnknownJob(t *testing.T) {
	svc := newBiographyService(t)
	if _, err := svc.JobStatus(context.Background(), "nope"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestMoodTimeline_Validation(t *testing.T) {
	svc := NewMoodService(&stubStore{events: &stubEvents{}, bios: &stubBiographies{}})

	if _, err := svc.MoodTimeline(context.Background(), "", model.MoodWeekly); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("missing user must be a validation error, got %v", err)
	}
	if _, err := svc.MoodTimeline(context.Background(), "u1", "hourly"); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("unknown period must be a validation error, got %v", err)
	}
}

func TestMoodTimeline_DefaultsToWeekly(t *testing.T) {
	ts := time.Date(2023, 3, 8, 0, 0, 0, 0, time.UTC)
	store := &stubStore{
		events: &stubEvents{fetch: []model.TimelineEvent{{
			ID:        "e1",
			UserID:    "u1",
			Timestamp: ts,
			Sentiment: &model.Sentiment{Valence: 0.5, Arousal: 0.5, PrimaryEmotion: "joy", Confidence: 0.9},
		}}},
		bios: &stubBiographies{},
	}
	svc := NewMoodService(store)

	tl, err := svc.MoodTimeline(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("MoodTimeline: %v", err)
	}
	if tl.Period != model.MoodWeekly {
		t.Fatalf("default period should be weekly, got %s", tl.Period)
	}
	if len(tl.Buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(tl.Buckets))
	}
}
