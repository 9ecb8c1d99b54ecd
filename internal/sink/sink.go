// Package sink delivers matches to their outputs.
//
// Every match found by the scanner becomes an Event that travels through
// a chain of middlewares into a base sink. The chain is assembled once at
// startup with Chain; the order of the middlewares is the order in which
// they see each event. A middleware may drop an event by not calling next.
package sink

import (
	"context"

	"github.com/nao1215/leakscan/internal/model"
)

// Event is one match ready for output.
type Event struct {
	Location model.Location
	Match    model.MatchResult
	// Text is the full scanned document.
	Text string
}

// Sink consumes events. Implementations must be safe for concurrent use.
type Sink interface {
	Emit(ctx context.Context, ev Event) error
}

// Func adapts a function to Sink.
type Func func(ctx context.Context, ev Event) error

// Emit implements Sink.
func (f Func) Emit(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Discard drops every event.
var Discard Sink = Func(func(context.Context, Event) error { return nil })

// Middleware wraps a sink with extra behaviour.
type Middleware interface {
	// Handle processes ev and normally passes it on to next.
	Handle(ctx context.Context, ev Event, next Sink) error
	// Name identifies the middleware in logs.
	Name() string
}

// link binds one middleware to the rest of the chain.
type link struct {
	mw   Middleware
	next Sink
}

func (l link) Emit(ctx context.Context, ev Event) error {
	return l.mw.Handle(ctx, ev, l.next)
}

// Chain returns a sink that passes each event through mws in order and
// then into base. Nil middlewares are skipped.
func Chain(base Sink, mws ...Middleware) Sink {
	s := base
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		s = link{mw: mws[i], next: s}
	}
	return s
}

// Names returns the names of mws in order, skipping nil entries.
func Names(mws ...Middleware) []string {
	var names []string
	for _, mw := range mws {
		if mw != nil {
			names = append(names, mw.Name())
		}
	}
	return names
}
