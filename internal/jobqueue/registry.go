package jobqueue

import (
	"sync"
	"time"

	"github.com/storyarc/storyarc/internal/model"
)

// registry is the in-memory job table used for status polling. Jobs are kept
// for the life of the process; callers always receive copies.
type registry struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
	now  func() time.Time
}

func newRegistry() *registry {
	return &registry{jobs: make(map[string]*model.Job), now: time.Now}
}

func (r *registry) create(id, queue string, req model.GenerationRequest) model.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	j := &model.Job{
		ID:         id,
		Queue:      queue,
		Request:    req,
		State:      model.JobQueued,
		EnqueuedAt: now,
		UpdatedAt:  now,
	}
	r.jobs[id] = j
	return *j
}

// get returns a copy so callers never observe concurrent mutation.
func (r *registry) get(id string) (model.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return model.Job{}, false
	}
	return *j, true
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}

func (r *registry) startAttempt(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		j.State = model.JobActive
		j.Attempts++
		j.Progress = 0
		j.UpdatedAt = r.now()
	}
}

// setProgress enforces monotonic progress within an attempt; stale or
// out-of-order updates are dropped.
func (r *registry) setProgress(id string, pct int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.State != model.JobActive || pct < j.Progress {
		return
	}
	if pct > 100 {
		pct = 100
	}
	j.Progress = pct
	j.UpdatedAt = r.now()
}

func (r *registry) complete(id string, res model.JobResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		j.State = model.JobCompleted
		j.Progress = 100
		j.Result = &res
		j.FailureReason = ""
		j.UpdatedAt = r.now()
	}
}

func (r *registry) fail(id string, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		j.State = model.JobFailed
		j.FailureReason = reason
		j.UpdatedAt = r.now()
	}
}
