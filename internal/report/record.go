package report

import (
	"fmt"

	"github.com/nao1215/leakscan/internal/model"
)

// Record is one reported match.
// Field order is the order keys appear in serialised output.
type Record struct {
	Location string `json:"location"`
	Severity string `json:"severity"`
	Title    string `json:"title"`
	// Index is the ordinal of the rule that matched.
	Index int    `json:"index"`
	Find  string `json:"find"`
	Regex string `json:"regex"`
	// Contents is the whole scanned text, present only when embedding.
	Contents *string `json:"contents,omitempty"`
}

// NewRecord builds the record for a match found in text at loc.
// text is attached as Contents only when embed is set.
func NewRecord(loc model.Location, m model.MatchResult, text string, embed bool) Record {
	rec := Record{
		Location: loc.Raw,
		Severity: m.Rule.Severity,
		Title:    m.Rule.Title,
		Index:    m.Index,
		Find:     m.Find,
		Regex:    m.Rule.PatternString(),
	}
	if embed {
		rec.Contents = &text
	}
	return rec
}

// Level returns the normalised severity of the record.
func (r Record) Level() model.Severity {
	return model.ParseSeverity(r.Severity)
}

// SummaryLine returns the human-readable description printed with --summary.
func (r Record) SummaryLine() string {
	return fmt.Sprintf("title: %s severity: %s index: %d location: %s", r.Title, r.Severity, r.Index, r.Location)
}
