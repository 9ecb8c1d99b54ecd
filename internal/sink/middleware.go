package sink

import (
	"context"

	"github.com/nao1215/leakscan/internal/database"
	"github.com/nao1215/leakscan/internal/metrics"
	"github.com/nao1215/leakscan/internal/report"
)

type persist struct {
	w     *report.JSONLWriter
	embed bool
}

// Persist writes every event as a record line to w before passing it on.
func Persist(w *report.JSONLWriter, embed bool) Middleware {
	return &persist{w: w, embed: embed}
}

func (p *persist) Name() string { return "persist" }

func (p *persist) Handle(ctx context.Context, ev Event, next Sink) error {
	if err := p.w.Write(report.NewRecord(ev.Location, ev.Match, ev.Text, p.embed)); err != nil {
		return err
	}
	return next.Emit(ctx, ev)
}

type store struct {
	db    *database.FindingsDB
	runID string
}

// Store saves every event to the findings history under runID.
func Store(db *database.FindingsDB, runID string) Middleware {
	return &store{db: db, runID: runID}
}

func (s *store) Name() string { return "store" }

func (s *store) Handle(ctx context.Context, ev Event, next Sink) error {
	if err := s.db.SaveFinding(ctx, s.runID, report.NewRecord(ev.Location, ev.Match, "", false)); err != nil {
		return err
	}
	return next.Emit(ctx, ev)
}

type collect struct {
	c *report.Collector
}

// Collect adds every event to c for the end-of-run report.
func Collect(c *report.Collector) Middleware {
	return &collect{c: c}
}

func (c *collect) Name() string { return "collect" }

func (c *collect) Handle(ctx context.Context, ev Event, next Sink) error {
	c.c.Add(report.NewRecord(ev.Location, ev.Match, "", false))
	return next.Emit(ctx, ev)
}

type observe struct {
	m *metrics.Recorder
}

// Observe counts every event that reaches it.
func Observe(m *metrics.Recorder) Middleware {
	return &observe{m: m}
}

func (o *observe) Name() string { return "observe" }

func (o *observe) Handle(ctx context.Context, ev Event, next Sink) error {
	o.m.Match(ev.Match.Rule.Severity)
	return next.Emit(ctx, ev)
}
