// Package jobqueue runs biography generation jobs on a pool of worker lanes
// with FIFO ordering per user. Jobs are partitioned onto lanes by a stable
// hash of the user ID, so two jobs for the same user never interleave while
// different users proceed in parallel.
package jobqueue

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/storyarc/storyarc/internal/model"
	"github.com/storyarc/storyarc/internal/pipeline"
)

// Runner executes one generation attempt end to end.
type Runner interface {
	Run(ctx context.Context, req model.GenerationRequest, progress pipeline.ProgressFunc) (*model.Biography, error)
}

// Config controls pool sizing and the retry policy.
type Config struct {
	// Workers is the number of lanes, and therefore the maximum number of
	// concurrently running jobs.
	Workers int
	// QueueSize bounds each lane's backlog.
	QueueSize int
	// EnqueueTimeout is how long Submit waits for lane capacity.
	EnqueueTimeout time.Duration
	// MaxAttempts caps executions of one job, first try included.
	MaxAttempts int
	// BaseBackoff is the wait before the first retry; it doubles per retry.
	BaseBackoff time.Duration
	// MaxInterval caps the backoff growth.
	MaxInterval time.Duration
}

type queuedJob struct {
	id  string
	req model.GenerationRequest
}

// Queue is the in-process job executor. Jobs survive process restarts only
// as much as the registry does, which is not at all; resubmission is the
// recovery story.
type Queue struct {
	cfg    Config
	runner Runner
	reg    *registry
	log    zerolog.Logger

	lanes  []chan queuedJob
	done   chan struct{}
	closed uint32
	wg     sync.WaitGroup

	// sleep is swapped in tests to compress backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs the queue and starts its workers.
func New(cfg Config, runner Runner, log zerolog.Logger) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = 100 * time.Millisecond
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 5 * time.Second
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 60 * time.Second
	}

	q := &Queue{
		cfg:    cfg,
		runner: runner,
		reg:    newRegistry(),
		log:    log.With().Str("component", "jobqueue").Logger(),
		lanes:  make([]chan queuedJob, cfg.Workers),
		done:   make(chan struct{}),
		sleep:  sleepCtx,
	}
	for i := 0; i < cfg.Workers; i++ {
		ch := make(chan queuedJob, cfg.QueueSize)
		q.lanes[i] = ch
		q.wg.Add(1)
		go q.runWorker(i, ch)
	}
	return q
}

// Submit registers a job and enqueues it on the lane for its user. The
// returned Job snapshot is in the QUEUED state. Submit fails with
// ErrQueueClosed after Stop, with a *QueueFullError when the lane stays full
// past the enqueue timeout, or with ctx.Err() if the caller gives up first.
func (q *Queue) Submit(ctx context.Context, req model.GenerationRequest) (model.Job, error) {
	if atomic.LoadUint32(&q.closed) == 1 {
		return model.Job{}, ErrQueueClosed
	}
	select {
	case <-q.done:
		return model.Job{}, ErrQueueClosed
	default:
	}

	lane := q.laneFor(req.UserID)
	ch := q.lanes[lane]

	id := uuid.New().String()
	job := q.reg.create(id, "biography-generation", req)

	timer := time.NewTimer(q.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case ch <- queuedJob{id: id, req: req}:
		submissionsTotal.WithLabelValues(laneLabel(lane)).Inc()
		queueDepth.WithLabelValues(laneLabel(lane)).Set(float64(len(ch)))
		return job, nil

	case <-q.done:
		q.reg.remove(id)
		return model.Job{}, ErrQueueClosed

	case <-ctx.Done():
		q.reg.remove(id)
		return model.Job{}, ctx.Err()

	case <-timer.C:
		q.reg.remove(id)
		queueFullTotal.WithLabelValues(laneLabel(lane)).Inc()
		return model.Job{}, &QueueFullError{Lane: lane, Length: len(ch), Capacity: cap(ch)}
	}
}

// Job returns a snapshot of a job by ID.
func (q *Queue) Job(id string) (model.Job, bool) {
	return q.reg.get(id)
}

// Stop drains every lane, runs what was already queued, and waits for the
// workers to exit. Idempotent.
func (q *Queue) Stop() {
	if !atomic.CompareAndSwapUint32(&q.closed, 0, 1) {
		return
	}
	q.log.Info().Int("lanes", q.cfg.Workers).Msg("stopping job queue, draining lanes")
	close(q.done)
	q.wg.Wait()
	q.log.Info().Msg("job queue stopped")
}

// Close lets Queue satisfy io.Closer.
func (q *Queue) Close() error {
	q.Stop()
	return nil
}

func (q *Queue) runWorker(idx int, ch <-chan queuedJob) {
	defer q.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			q.log.Error().Interface("panic", r).Int("lane", idx).Msg("worker panicked")
		}
	}()

	label := laneLabel(idx)
	ctx := context.Background()

	for {
		select {
		case qj := <-ch:
			q.execute(ctx, label, qj)
			queueDepth.WithLabelValues(label).Set(float64(len(ch)))

		case <-q.done:
			for {
				select {
				case qj := <-ch:
					q.execute(ctx, label, qj)
				default:
					queueDepth.WithLabelValues(label).Set(0)
					return
				}
			}
		}
	}
}

// execute runs one job through the retry loop until success, an
// irrecoverable error, or attempt exhaustion.
func (q *Queue) execute(ctx context.Context, label string, qj queuedJob) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = q.cfg.BaseBackoff
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = q.cfg.MaxInterval
	exp.Reset()

	progress := func(pct int) error {
		q.reg.setProgress(qj.id, pct)
		return nil
	}

	for attempt := 1; ; attempt++ {
		q.reg.startAttempt(qj.id)

		start := time.Now()
		bio, err := q.runner.Run(ctx, qj.req, progress)
		runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

		if err == nil {
			q.reg.complete(qj.id, model.JobResult{
				BiographyID:   bio.ID,
				Title:         bio.Title,
				TotalChapters: bio.Metadata.TotalChapters,
				TotalWords:    bio.Metadata.TotalWords,
				CostUSD:       bio.Metadata.CostUSD,
			})
			jobsCompletedTotal.Inc()
			return
		}

		classified := Classify(err)
		if classified.Category == Irrecoverable {
			q.log.Warn().Err(err).Str("job_id", qj.id).Msg("job failed irrecoverably")
			q.reg.fail(qj.id, classified.Error())
			jobsFailedTotal.Inc()
			return
		}
		if attempt >= q.cfg.MaxAttempts {
			q.log.Warn().Err(err).Str("job_id", qj.id).Int("attempts", attempt).Msg("job failed after max attempts")
			q.reg.fail(qj.id, classified.Error())
			jobsFailedTotal.Inc()
			return
		}

		select {
		case <-q.done:
			// Draining after Stop; a queued job gets one attempt, not the
			// retry schedule.
			q.log.Info().Err(err).Str("job_id", qj.id).Msg("queue draining, not retrying job")
			q.reg.fail(qj.id, classified.Error())
			jobsFailedTotal.Inc()
			return
		default:
		}

		retriesTotal.Inc()
		wait := exp.NextBackOff()
		q.log.Info().Err(err).Str("job_id", qj.id).Int("attempt", attempt).Dur("backoff", wait).Msg("retrying job")
		if err := q.backoffWait(ctx, wait); err != nil {
			q.reg.fail(qj.id, classified.Error())
			jobsFailedTotal.Inc()
			return
		}
	}
}

// backoffWait sleeps between attempts, aborting as soon as the queue begins
// draining so Stop is not held up by retry waits.
func (q *Queue) backoffWait(ctx context.Context, d time.Duration) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-q.done:
			cancel()
		case <-waitCtx.Done():
		}
	}()
	return q.sleep(waitCtx, d)
}

func (q *Queue) laneFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % q.cfg.Workers
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
