package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/leakscan/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// maxFindingRows caps the findings table; the per-rule table still counts everything.
const maxFindingRows = 200

var severityIcons = map[model.Severity]string{
	model.SeverityCritical: "🔴",
	model.SeverityHigh:     "🟠",
	model.SeverityMedium:   "🟡",
	model.SeverityLow:      "🔵",
	model.SeverityInfo:     "⚪",
	model.SeverityUnknown:  "⚫",
}

// MarkdownWriter renders a Summary as a Markdown document.
type MarkdownWriter struct {
	output io.Writer
	caser  cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter writing to output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output, caser: cases.Title(language.English)}
}

// Write renders s.
func (w *MarkdownWriter) Write(s Summary) error {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, s)
	w.writeSeverities(md, s)
	w.writeRules(md, s)
	w.writeFindings(md, s)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by leakscan*")

	if err := md.Build(); err != nil {
		return fmt.Errorf("failed to write markdown report: %w", err)
	}
	return nil
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s Summary) {
	md.H1("Leak Scan Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + s.RunID + "`"},
			{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String()},
			{"Locations", strconv.Itoa(s.Totals.Admitted)},
			{"Succeeded", strconv.Itoa(s.Totals.Succeeded)},
			{"Failed", strconv.Itoa(s.Totals.Failed)},
			{"Matches", strconv.Itoa(len(s.Records))},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSeverities(md *markdown.Markdown, s Summary) {
	md.H2("Severity Summary")
	md.PlainText("")

	counts := s.CountBySeverity()
	rows := make([][]string, 0, len(model.Severities())+1)
	for _, level := range model.Severities() {
		rows = append(rows, []string{w.severityLabel(level), strconv.Itoa(counts[level])})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(len(s.Records)) + "**"})
	md.Table(markdown.TableSet{Header: []string{"Severity", "Count"}, Rows: rows})
	md.PlainText("")

	if len(s.Records) > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Matches by Severity"),
			piechart.WithShowData(true),
		)
		for _, level := range model.Severities() {
			if n := counts[level]; n > 0 {
				chart.LabelAndIntValue(w.caser.String(level.String()), uint64(n))
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case counts[model.SeverityCritical] > 0:
		md.Cautionf("%d critical match(es) found. Rotate the affected credentials now.", counts[model.SeverityCritical])
	case counts[model.SeverityHigh] > 0:
		md.Warningf("%d high severity match(es) found.", counts[model.SeverityHigh])
	case len(s.Records) > 0:
		md.Note("Only medium, low and informational matches found.")
	default:
		md.Tip("No leaks found.")
	}
	md.PlainText("")

	if s.Totals.Failed > 0 {
		md.Importantf("%d location(s) could not be fetched and were not scanned.", s.Totals.Failed)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeRules(md *markdown.Markdown, s Summary) {
	byRule := s.ByRule()
	if len(byRule) == 0 {
		return
	}

	md.H2("Matches by Rule")
	md.PlainText("")
	rows := make([][]string, len(byRule))
	for i, rc := range byRule {
		rows[i] = []string{strconv.Itoa(rc.Index), rc.Title, w.caser.String(rc.Severity), strconv.Itoa(rc.Count)}
	}
	md.Table(markdown.TableSet{Header: []string{"Index", "Rule", "Severity", "Matches"}, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, s Summary) {
	md.H2("Findings")
	md.PlainText("")

	if len(s.Records) == 0 {
		md.PlainText("No matches.")
		md.PlainText("")
		return
	}

	records := s.Records
	if len(records) > maxFindingRows {
		records = records[:maxFindingRows]
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			w.severityLabel(r.Level()),
			r.Title,
			"`" + Mask(r.Find) + "`",
			truncateString(r.Location, 60),
		}
	}
	md.Table(markdown.TableSet{Header: []string{"Severity", "Rule", "Match", "Location"}, Rows: rows})
	md.PlainText("")

	if n := len(s.Records) - len(records); n > 0 {
		md.PlainTextf("%d more match(es) omitted.", n)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) severityLabel(level model.Severity) string {
	return severityIcons[level] + " " + w.caser.String(level.String())
}

// Mask keeps the first four characters of a match and hides the rest,
// so reports can be shared without re-leaking what was found.
func Mask(find string) string {
	r := []rune(find)
	if len(r) <= 4 {
		return "****"
	}
	return string(r[:4]) + "****"
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
