package pipeline

import "github.com/rs/zerolog"

// ProgressFunc receives the job's completion percentage. Implementations may
// fail (queue backends, network); the pipeline treats reporting as strictly
// best-effort.
type ProgressFunc func(pct int) error

// progressReporter guarantees that a reporting failure or panic never aborts
// the substantive work, and that reported values are monotonic.
type progressReporter struct {
	fn   ProgressFunc
	log  zerolog.Logger
	last int
}

func newProgressReporter(fn ProgressFunc, log zerolog.Logger) *progressReporter {
	return &progressReporter{fn: fn, log: log}
}

func (r *progressReporter) report(pct int) {
	if r.fn == nil || pct < r.last {
		return
	}
	r.last = pct

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Warn().Interface("panic", rec).Int("pct", pct).Msg("progress callback panicked")
		}
	}()
	if err := r.fn(pct); err != nil {
		r.log.Warn().Err(err).Int("pct", pct).Msg("progress update failed")
	}
}
