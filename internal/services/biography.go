package services

import (
	"context"
	"fmt"

	"github.com/storyarc/storyarc/internal/eventstore"
	"github.com/storyarc/storyarc/internal/jobqueue"
	"github.com/storyarc/storyarc/internal/model"
)

// BiographyService orchestrates generation submissions and biography reads.
type BiographyService struct {
	store eventstore.Store
	queue *jobqueue.Queue
}

func NewBiographyService(s eventstore.Store, q *jobqueue.Queue) *BiographyService {
	return &BiographyService{store: s, queue: q}
}

// Submit validates the request and enqueues a generation job.
func (s *BiographyService) Submit(ctx context.Context, req model.GenerationRequest) (model.Job, error) {
	if req.UserID == "" {
		return model.Job{}, fmt.Errorf("%w: userId is required", model.ErrValidation)
	}
	if req.Style != "" && !req.Style.Valid() {
		return model.Job{}, fmt.Errorf("%w: unknown style %q", model.ErrValidation, req.Style)
	}
	if o := req.Options.Chapters; o.MinEventsPerChapter < 0 || o.MaxEventsPerChapter < 0 {
		return model.Job{}, fmt.Errorf("%w: chapter bounds must be non-negative", model.ErrValidation)
	}
	return s.queue.Submit(ctx, req)
}

// JobStatus returns the current snapshot of a job.
func (s *BiographyService) JobStatus(ctx context.Context, jobID string) (model.Job, error) {
	j, ok := s.queue.Job(jobID)
	if !ok {
		return model.Job{}, fmt.Errorf("%w: job %s", model.ErrNotFound, jobID)
	}
	return j, nil
}

func (s *BiographyService) GetBiography(ctx context.Context, userID, biographyID string) (*model.Biography, error) {
	return s.store.Biographies().GetByID(ctx, userID, biographyID)
}

func (s *BiographyService) ListBiographies(ctx context.Context, userID string) ([]*model.Biography, error) {
	return s.store.Biographies().List(ctx, userID)
}
