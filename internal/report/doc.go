// Package report turns matches into output records.
//
// Record is the JSON shape shared by the --json stream and the --write
// file. JSONLWriter appends records one per line and is safe for
// concurrent use. Collector accumulates records during a run and
// MarkdownWriter renders them as an end-of-run summary.
package report
