package fetch

import (
	"context"
	"time"

	"github.com/nao1215/leakscan/internal/model"
)

// Fetcher retrieves the text content of a location.
type Fetcher interface {
	Fetch(ctx context.Context, loc model.Location) (string, error)
}

// Outcome labels a single fetch attempt.
type Outcome string

const (
	// OutcomeOK is a successful attempt.
	OutcomeOK Outcome = "ok"
	// OutcomeRetryable is a failed attempt that may be retried.
	OutcomeRetryable Outcome = "retryable"
	// OutcomeFailed is a failed attempt that will not be retried.
	OutcomeFailed Outcome = "failed"
)

// AttemptObserver is called once per attempt with its duration.
type AttemptObserver func(kind model.LocationKind, outcome Outcome, elapsed time.Duration)

func (o AttemptObserver) observe(kind model.LocationKind, outcome Outcome, start time.Time) {
	if o != nil {
		o(kind, outcome, time.Since(start))
	}
}
