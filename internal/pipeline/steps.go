package pipeline

import (
	"context"

	"github.com/nao1215/leakscan/internal/fetch"
	"github.com/nao1215/leakscan/internal/rules"
	"github.com/nao1215/leakscan/internal/scanner"
	"github.com/nao1215/leakscan/internal/sink"
)

// FetchStep loads the document text.
type FetchStep struct {
	fetcher fetch.Fetcher
}

// NewFetchStep creates a FetchStep using f.
func NewFetchStep(f fetch.Fetcher) *FetchStep {
	return &FetchStep{fetcher: f}
}

// Name implements Step.
func (s *FetchStep) Name() string { return "fetch" }

// Do implements Step.
func (s *FetchStep) Do(ctx context.Context, doc *Document) error {
	text, err := s.fetcher.Fetch(ctx, doc.Location)
	if err != nil {
		return err
	}
	doc.Text = text
	return nil
}

// ScanStep runs the rule database over the text and emits each match as
// soon as it is found.
type ScanStep struct {
	db   *rules.Database
	sink sink.Sink
}

// NewScanStep creates a ScanStep emitting to s.
func NewScanStep(db *rules.Database, s sink.Sink) *ScanStep {
	return &ScanStep{db: db, sink: s}
}

// Name implements Step.
func (s *ScanStep) Name() string { return "scan" }

// Do implements Step. A sink error stops the scan of this document.
func (s *ScanStep) Do(ctx context.Context, doc *Document) error {
	for m := range scanner.Scan(doc.Text, s.db) {
		ev := sink.Event{Location: doc.Location, Match: m, Text: doc.Text}
		if err := s.sink.Emit(ctx, ev); err != nil {
			return err
		}
		doc.Matches++
	}
	return nil
}
