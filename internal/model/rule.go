package model

import "regexp"

// Rule is one entry of the rule database.
//
// A Rule is shared read-only by every scan. *regexp.Regexp is safe for
// concurrent use and keeps no match cursor between calls, so the same
// Rule can scan any number of texts independently.
type Rule struct {
	// Title is the human-readable rule name (e.g. "AWS Access Key ID").
	Title string

	// Severity is the raw severity string from the database.
	// It is emitted unchanged in records; use Level for comparisons.
	Severity string

	// Pattern finds occurrences of the leak.
	Pattern *regexp.Regexp

	// Index is the rule's position in the database, assigned once at load time.
	Index int
}

// Level returns the normalised severity of the rule.
func (r Rule) Level() Severity {
	return ParseSeverity(r.Severity)
}

// PatternString returns the pattern's source form, or "" when unset.
func (r Rule) PatternString() string {
	if r.Pattern == nil {
		return ""
	}
	return r.Pattern.String()
}
