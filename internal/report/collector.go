package report

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/nao1215/leakscan/internal/model"
)

// Totals are the task counts of a run.
type Totals struct {
	Admitted  int
	Succeeded int
	Failed    int
}

// Collector accumulates records for the end-of-run report.
// It is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	started time.Time
	records []Record
}

// NewCollector creates a Collector whose run started at started.
func NewCollector(started time.Time) *Collector {
	return &Collector{started: started}
}

// Add records rec. Embedded contents are dropped.
func (c *Collector) Add(rec Record) {
	rec.Contents = nil

	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
}

// Len returns the number of records collected.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Summary snapshots the collected records.
func (c *Collector) Summary(runID string, totals Totals, finished time.Time) Summary {
	c.mu.Lock()
	records := slices.Clone(c.records)
	c.mu.Unlock()

	slices.SortStableFunc(records, func(a, b Record) int {
		if n := cmp.Compare(b.Level(), a.Level()); n != 0 {
			return n
		}
		return cmp.Compare(a.Index, b.Index)
	})

	return Summary{
		RunID:      runID,
		StartedAt:  c.started,
		FinishedAt: finished,
		Totals:     totals,
		Records:    records,
	}
}

// Summary is a finished run ready to render.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Totals     Totals
	// Records are ordered from most to least severe, then by rule.
	Records []Record
}

// CountBySeverity returns the number of records at each level.
func (s Summary) CountBySeverity() map[model.Severity]int {
	counts := make(map[model.Severity]int)
	for _, r := range s.Records {
		counts[r.Level()]++
	}
	return counts
}

// RuleCount is the number of matches of one rule.
type RuleCount struct {
	Index    int
	Title    string
	Severity string
	Count    int
}

// ByRule returns per-rule match counts ordered by descending count.
func (s Summary) ByRule() []RuleCount {
	byIndex := make(map[int]*RuleCount)
	for _, r := range s.Records {
		rc, ok := byIndex[r.Index]
		if !ok {
			rc = &RuleCount{Index: r.Index, Title: r.Title, Severity: r.Severity}
			byIndex[r.Index] = rc
		}
		rc.Count++
	}

	out := make([]RuleCount, 0, len(byIndex))
	for _, rc := range byIndex {
		out = append(out, *rc)
	}
	slices.SortFunc(out, func(a, b RuleCount) int {
		if n := cmp.Compare(b.Count, a.Count); n != 0 {
			return n
		}
		return cmp.Compare(a.Index, b.Index)
	})
	return out
}
