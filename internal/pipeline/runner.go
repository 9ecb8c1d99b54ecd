package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/leakscan/internal/model"
	"github.com/nao1215/leakscan/internal/source"
)

// ErrTasksFailed is returned by Run when at least one task failed.
var ErrTasksFailed = errors.New("one or more locations failed")

// Handler processes one task.
type Handler func(ctx context.Context, doc *Document) error

// Stats summarises a run.
type Stats struct {
	Admitted  int
	Succeeded int
	Failed    int
	Matches   int
}

// Runner admits tasks from a source and runs them concurrently.
type Runner struct {
	concurrency int
	logger      *slog.Logger
	onDone      func(doc *Document)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithConcurrency caps the number of tasks in flight. Zero or less
// leaves tasks unbounded.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		r.concurrency = n
	}
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithTaskDone registers a hook called after every task, successful or not.
// It may be called concurrently.
func WithTaskDone(fn func(doc *Document)) RunnerOption {
	return func(r *Runner) {
		r.onDone = fn
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run reads locations from src and runs handle for each.
//
// Tasks start in source order; when the concurrency limit is reached
// reading pauses until a task finishes, so the source is never read far
// ahead of the work. A failed task is logged and counted but does not
// cancel other tasks. When ctx is cancelled no further tasks are admitted.
//
// Run waits for every admitted task before returning. It returns the
// source's read error if reading failed, ctx's error if the run was
// interrupted, and an error wrapping ErrTasksFailed if any task failed.
func (r *Runner) Run(ctx context.Context, src source.Source, handle Handler) (Stats, error) {
	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}

	var admitted, succeeded, failed, matches atomic.Int64
	var readErr error
	start := time.Now()

	for raw, err := range src.Locations(ctx) {
		if err != nil {
			if ctx.Err() == nil {
				readErr = err
			}
			break
		}
		if ctx.Err() != nil {
			break
		}

		loc := model.Classify(raw)
		admitted.Add(1)
		g.Go(func() error {
			doc := &Document{Location: loc}
			r.logger.Debug("task started", "location", loc.Raw, "kind", loc.Kind.String())

			if err := handle(ctx, doc); err != nil {
				doc.Err = err
				failed.Add(1)
				r.logger.Warn("location failed", "location", loc.Raw, "error", err)
			} else {
				succeeded.Add(1)
			}
			matches.Add(int64(doc.Matches))

			if r.onDone != nil {
				r.onDone(doc)
			}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // tasks never return errors

	stats := Stats{
		Admitted:  int(admitted.Load()),
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
		Matches:   int(matches.Load()),
	}
	r.logger.Info("run complete",
		"admitted", stats.Admitted,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"matches", stats.Matches,
		"elapsed", time.Since(start),
	)

	switch {
	case readErr != nil:
		return stats, readErr
	case ctx.Err() != nil:
		return stats, ctx.Err()
	case stats.Failed > 0:
		return stats, fmt.Errorf("%w: %d of %d", ErrTasksFailed, stats.Failed, stats.Admitted)
	}
	return stats, nil
}
