package sink

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/nao1215/leakscan/internal/report"
)

// Console prints events for a person or a downstream tool.
//
// In JSON mode each event is one record line on out. Otherwise the
// matched text is printed on out and, with summary enabled, a line
// describing the match on diag. Writes are serialised so lines from
// concurrent tasks never interleave.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	diag    io.Writer
	json    bool
	summary bool
	embed   bool
}

// ConsoleOptions selects the console format.
type ConsoleOptions struct {
	JSON    bool
	Summary bool
	Embed   bool
}

// NewConsole creates a Console writing matches to out and summaries to diag.
func NewConsole(out, diag io.Writer, opts ConsoleOptions) *Console {
	return &Console{
		out:     out,
		diag:    diag,
		json:    opts.JSON,
		summary: opts.Summary,
		embed:   opts.Embed,
	}
}

// Emit implements Sink.
func (c *Console) Emit(_ context.Context, ev Event) error {
	rec := report.NewRecord(ev.Location, ev.Match, ev.Text, c.embed)

	if c.json {
		line, err := report.EncodeRecord(rec)
		if err != nil {
			return err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, err := c.out.Write(line); err != nil {
			return fmt.Errorf("failed to write match: %w", err)
		}
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.summary {
		if _, err := fmt.Fprintln(c.diag, rec.SummaryLine()); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	if _, err := fmt.Fprintln(c.out, rec.Find); err != nil {
		return fmt.Errorf("failed to write match: %w", err)
	}
	return nil
}
