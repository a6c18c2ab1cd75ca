package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/storyarc/storyarc/internal/llm"
	"github.com/storyarc/storyarc/internal/model"
	"github.com/storyarc/storyarc/internal/pipeline"
)

// fakeRunner fails a configurable number of times before succeeding and
// records every request it sees.
type fakeRunner struct {
	mu       sync.Mutex
	failures int
	failWith error
	calls    int
	seen     []model.GenerationRequest
	block    chan struct{} // when set, Run waits until it is closed
	progress []int         // checkpoints to report on the successful run
}

func (f *fakeRunner) Run(ctx context.Context, req model.GenerationRequest, progress pipeline.ProgressFunc) (*model.Biography, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.seen = append(f.seen, req)
	f.mu.Unlock()

	if call <= f.failures {
		if f.failWith != nil {
			return nil, f.failWith
		}
		return nil, fmt.Errorf("transient backend failure %d", call)
	}
	for _, pct := range f.progress {
		_ = progress(pct)
	}
	return &model.Biography{
		ID:     "bio-1",
		UserID: req.UserID,
		Title:  "A Life in Order",
		Metadata: model.BiographyMetadata{
			TotalChapters: 3,
			TotalWords:    1200,
			CostUSD:       0.05,
		},
	}, nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingSleep captures requested backoff waits without actually waiting.
type recordingSleep struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.waits = append(r.waits, d)
	r.mu.Unlock()
	return nil
}

func waitForState(t *testing.T, q *Queue, id string, want model.JobState) model.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if j, ok := q.Job(id); ok && j.State == want {
			return j
		}
		time.Sleep(5 * time.Millisecond)
	}
	j, _ := q.Job(id)
	t.Fatalf("job %s never reached %s, last snapshot: %+v", id, want, j)
	return model.Job{}
}

func TestQueue_RetriesThenCompletes(t *testing.T) {
	runner := &fakeRunner{failures: 2, progress: []int{10, 30, 50, 70, 90, 100}}
	rs := &recordingSleep{}

	q := New(Config{Workers: 1, MaxAttempts: 3, BaseBackoff: 5 * time.Second}, runner, zerolog.Nop())
	q.sleep = rs.sleep
	defer q.Stop()

	job, err := q.Submit(context.Background(), model.GenerationRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.State != model.JobQueued {
		t.Fatalf("fresh job should be QUEUED, got %s", job.State)
	}

	done := waitForState(t, q, job.ID, model.JobCompleted)
	if done.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", done.Attempts)
	}
	if done.Progress != 100 {
		t.Fatalf("completed job progress = %d", done.Progress)
	}
	if done.Result == nil || done.Result.BiographyID != "bio-1" || done.Result.TotalChapters != 3 {
		t.Fatalf("unexpected result %+v", done.Result)
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	if len(rs.waits) != 2 {
		t.Fatalf("expected 2 backoff waits, got %v", rs.waits)
	}
	if rs.waits[0] != 5*time.Second || rs.waits[1] != 10*time.Second {
		t.Fatalf("backoff should double from the base: %v", rs.waits)
	}
}

func TestQueue_IrrecoverableFailsFast(t *testing.T) {
	runner := &fakeRunner{
		failures: 10,
		failWith: &llm.BackendError{Op: "complete", StatusCode: 400, Underlying: fmt.Errorf("bad prompt")},
	}
	rs := &recordingSleep{}

	q := New(Config{Workers: 1, MaxAttempts: 3}, runner, zerolog.Nop())
	q.sleep = rs.sleep
	defer q.Stop()

	job, err := q.Submit(context.Background(), model.GenerationRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	failed := waitForState(t, q, job.ID, model.JobFailed)
	if failed.Attempts != 1 {
		t.Fatalf("client errors must not be retried, got %d attempts", failed.Attempts)
	}
	if failed.FailureReason == "" {
		t.Fatal("failed job must carry a reason")
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if len(rs.waits) != 0 {
		t.Fatalf("no backoff expected, got %v", rs.waits)
	}
}

func TestQueue_RateLimitIsRetried(t *testing.T) {
	runner := &fakeRunner{
		failures: 1,
		failWith: &llm.BackendError{Op: "complete", StatusCode: 429, Underlying: fmt.Errorf("rate limited")},
	}
	rs := &recordingSleep{}

	q := New(Config{Workers: 1, MaxAttempts: 3}, runner, zerolog.Nop())
	q.sleep = rs.sleep
	defer q.Stop()

	job, err := q.Submit(context.Background(), model.GenerationRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	done := waitForState(t, q, job.ID, model.JobCompleted)
	if done.Attempts != 2 {
		t.Fatalf("429 should retry, got %d attempts", done.Attempts)
	}
}

func TestQueue_AttemptExhaustion(t *testing.T) {
	runner := &fakeRunner{failures: 100}
	rs := &recordingSleep{}

	q := New(Config{Workers: 1, MaxAttempts: 3}, runner, zerolog.Nop())
	q.sleep = rs.sleep
	defer q.Stop()

	job, err := q.Submit(context.Background(), model.GenerationRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	failed := waitForState(t, q, job.ID, model.JobFailed)
	if failed.Attempts != 3 {
		t.Fatalf("expected 3 attempts before giving up, got %d", failed.Attempts)
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if len(rs.waits) != 2 {
		t.Fatalf("expected 2 waits between 3 attempts, got %v", rs.waits)
	}
}

func TestQueue_FullLaneRejects(t *testing.T) {
	block := make(chan struct{})
	runner := &fakeRunner{block: block}

	q := New(Config{Workers: 1, QueueSize: 1, EnqueueTimeout: 10 * time.Millisecond}, runner, zerolog.Nop())
	defer q.Stop()
	defer close(block) // unblock the worker before Stop drains

	ctx := context.Background()
	// First job occupies the worker, second fills the lane buffer.
	if _, err := q.Submit(ctx, model.GenerationRequest{UserID: "u1"}); err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	// Give the worker a moment to pick up the first job.
	time.Sleep(50 * time.Millisecond)
	if _, err := q.Submit(ctx, model.GenerationRequest{UserID: "u1"}); err != nil {
		t.Fatalf("submit 2: %v", err)
	}

	_, err := q.Submit(ctx, model.GenerationRequest{UserID: "u1"})
	var full *QueueFullError
	if !errors.As(err, &full) {
		t.Fatalf("expected *QueueFullError, got %v", err)
	}
	if full.Capacity != 1 {
		t.Fatalf("unexpected capacity %d", full.Capacity)
	}
}

func TestQueue_SubmitAfterStop(t *testing.T) {
	q := New(Config{Workers: 1}, &fakeRunner{}, zerolog.Nop())
	q.Stop()

	if _, err := q.Submit(context.Background(), model.GenerationRequest{UserID: "u1"}); err != ErrQueueClosed {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestQueue_StopDrainsQueuedJobs(t *testing.T) {
	runner := &fakeRunner{}
	q := New(Config{Workers: 2, QueueSize: 16}, runner, zerolog.Nop())

	ids := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		job, err := q.Submit(context.Background(), model.GenerationRequest{UserID: fmt.Sprintf("user-%d", i)})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		ids = append(ids, job.ID)
	}

	q.Stop()

	for _, id := range ids {
		j, ok := q.Job(id)
		if !ok || j.State != model.JobCompleted {
			t.Fatalf("job %s not completed after drain: %+v", id, j)
		}
	}
}

// A failing job caught by the drain gets exactly one attempt; Stop must not
// wait out the retry backoff.
func TestQueue_StopSkipsRetryBackoff(t *testing.T) {
	block := make(chan struct{})
	runner := &fakeRunner{failures: 100, block: block}

	q := New(Config{Workers: 1, QueueSize: 4, MaxAttempts: 3, BaseBackoff: time.Hour}, runner, zerolog.Nop())

	ctx := context.Background()
	first, err := q.Submit(ctx, model.GenerationRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	// Let the worker pick up the first job and park inside Run.
	time.Sleep(50 * time.Millisecond)
	queued, err := q.Submit(ctx, model.GenerationRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("submit 2: %v", err)
	}

	stopped := make(chan struct{})
	go func() {
		q.Stop()
		close(stopped)
	}()
	// Stop closes its drain signal before waiting; release the worker after.
	time.Sleep(50 * time.Millisecond)
	close(block)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop held up by retry backoff")
	}

	for _, id := range []string{first.ID, queued.ID} {
		j, ok := q.Job(id)
		if !ok || j.State != model.JobFailed {
			t.Fatalf("job %s should fail during drain: %+v", id, j)
		}
		if j.Attempts != 1 {
			t.Fatalf("drained job %s must run once, got %d attempts", id, j.Attempts)
		}
	}
}

func TestQueue_SameUserRunsInOrder(t *testing.T) {
	runner := &fakeRunner{}
	q := New(Config{Workers: 4, QueueSize: 16}, runner, zerolog.Nop())

	styles := []model.BiographyStyle{
		model.StyleChronological,
		model.StyleThematic,
		model.StyleReflective,
	}
	for _, st := range styles {
		if _, err := q.Submit(context.Background(), model.GenerationRequest{UserID: "same-user", Style: st}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	q.Stop()

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.seen) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runner.seen))
	}
	for i, st := range styles {
		if runner.seen[i].Style != st {
			t.Fatalf("jobs for one user ran out of order: %+v", runner.seen)
		}
	}
}

func TestRegistry_ProgressIsMonotonic(t *testing.T) {
	r := newRegistry()
	r.create("j1", "biography-generation", model.GenerationRequest{UserID: "u"})
	r.startAttempt("j1")

	r.setProgress("j1", 30)
	r.setProgress("j1", 10) // stale, dropped
	if j, _ := r.get("j1"); j.Progress != 30 {
		t.Fatalf("stale progress must be dropped, got %d", j.Progress)
	}

	r.setProgress("j1", 250)
	if j, _ := r.get("j1"); j.Progress != 100 {
		t.Fatalf("progress must cap at 100, got %d", j.Progress)
	}
}

func TestRegistry_RetryResetsProgress(t *testing.T) {
	r := newRegistry()
	r.create("j1", "biography-generation", model.GenerationRequest{UserID: "u"})
	r.startAttempt("j1")
	r.setProgress("j1", 70)

	r.startAttempt("j1")
	j, _ := r.get("j1")
	if j.Progress != 0 || j.Attempts != 2 {
		t.Fatalf("new attempt must reset progress: %+v", j)
	}
}
