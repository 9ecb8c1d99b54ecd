// Package source produces the locations a scan run works through.
//
// A Source hands out locations one at a time so the pipeline can admit
// tasks while input is still being read. Sources are not restartable.
package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"strings"
)

// StdinMarker is the location argument that selects the line feed on stdin.
const StdinMarker = "-"

// maxLineSize bounds a single input line.
const maxLineSize = 1024 * 1024

// Source produces locations lazily.
type Source interface {
	// Locations yields each location in input order. A non-nil error
	// ends the sequence.
	Locations(ctx context.Context) iter.Seq2[string, error]
}

// listSource yields a pre-known list of locations.
type listSource struct {
	locations []string
}

// Single returns a source yielding exactly one location.
func Single(location string) Source {
	return &listSource{locations: []string{location}}
}

// List returns a source yielding the given locations in order.
func List(locations ...string) Source {
	return &listSource{locations: locations}
}

// Locations implements Source.
func (s *listSource) Locations(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, loc := range s.locations {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			if !yield(loc, nil) {
				return
			}
		}
	}
}

// lineSource reads one location per line.
type lineSource struct {
	r io.Reader
}

// Lines returns a source reading one location per line from r.
// Surrounding whitespace is trimmed and blank lines are skipped.
// Lines are yielded as they are read, so r may be unbounded.
func Lines(r io.Reader) Source {
	return &lineSource{r: r}
}

// lineResult is one read from the feed.
type lineResult struct {
	line string
	err  error
}

// Locations implements Source.
//
// Lines are read on a separate goroutine so a cancelled ctx ends the
// sequence even while the feed is idle. That goroutine stays blocked in
// Read until the feed produces data or is closed.
func (s *lineSource) Locations(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		lines := make(chan lineResult)
		done := make(chan struct{})
		defer close(done)
		go s.read(lines, done)

		for {
			select {
			case <-ctx.Done():
				yield("", ctx.Err())
				return
			case res, ok := <-lines:
				if !ok {
					return
				}
				if res.err != nil {
					yield("", res.err)
					return
				}
				if err := ctx.Err(); err != nil {
					yield("", err)
					return
				}
				if !yield(res.line, nil) {
					return
				}
			}
		}
	}
}

// read sends non-blank trimmed lines on out until the feed ends or done
// is closed. out is closed on return.
func (s *lineSource) read(out chan<- lineResult, done <-chan struct{}) {
	defer close(out)

	sc := bufio.NewScanner(s.r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	send := func(res lineResult) bool {
		select {
		case out <- res:
			return true
		case <-done:
			return false
		}
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !send(lineResult{line: line}) {
			return
		}
	}
	if err := sc.Err(); err != nil {
		send(lineResult{err: fmt.Errorf("failed to read locations: %w", err)})
	}
}
