package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/leakscan/internal/model"
)

// Document is the state of one task as it moves through the steps.
type Document struct {
	Location model.Location
	// Text is the fetched content.
	Text string
	// Matches counts the matches handed to the sink.
	Matches int
	// Err is the error that ended the task, if any.
	Err error
}

// Step is one stage of a task.
type Step interface {
	// Do advances doc. An error ends the task.
	Do(ctx context.Context, doc *Document) error
	// Name identifies the step in logs.
	Name() string
}

// Pipeline runs steps in order.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a Pipeline running steps in the order given.
func New(steps []Step, opts ...Option) *Pipeline {
	p := &Pipeline{steps: steps}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Execute runs every step on doc, stopping at the first error.
// Execute has the signature of a Handler.
func (p *Pipeline) Execute(ctx context.Context, doc *Document) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"location", doc.Location.Raw,
		)

		if err := step.Do(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
