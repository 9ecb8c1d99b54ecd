package model

// MatchResult is one occurrence of one rule matching within one document.
type MatchResult struct {
	// Rule is the rule that matched.
	Rule Rule

	// Index identifies which rule matched (its ordinal in the database).
	// It is not a character offset into the scanned text.
	Index int

	// Find is the matched substring.
	Find string
}
