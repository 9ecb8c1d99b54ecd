package sink

import (
	"context"
	"sync"
)

// DedupSet remembers matched text across a whole run.
type DedupSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDedupSet creates an empty set.
func NewDedupSet() *DedupSet {
	return &DedupSet{seen: make(map[string]struct{})}
}

// Add inserts find and reports whether it was new. The check and the
// insert happen under one lock, so exactly one caller wins for each value.
func (d *DedupSet) Add(find string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[find]; ok {
		return false
	}
	d.seen[find] = struct{}{}
	return true
}

// Len returns the number of distinct values seen.
func (d *DedupSet) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

type dedup struct {
	set *DedupSet
}

// Dedup drops events whose matched text has already passed through set,
// regardless of rule or location.
func Dedup(set *DedupSet) Middleware {
	return &dedup{set: set}
}

func (d *dedup) Name() string { return "dedup" }

func (d *dedup) Handle(ctx context.Context, ev Event, next Sink) error {
	if !d.set.Add(ev.Match.Find) {
		return nil
	}
	return next.Emit(ctx, ev)
}
