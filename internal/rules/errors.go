package rules

import "errors"

// Rule database errors.
// Load wraps these with the offending rule's index and title so callers can
// both match them with errors.Is and show a precise message.
var (
	// ErrInvalidPattern is returned when a rule pattern does not compile.
	ErrInvalidPattern = errors.New("invalid rule pattern")

	// ErrEmptyPattern is returned when a rule has no pattern.
	ErrEmptyPattern = errors.New("rule pattern is empty")

	// ErrMissingTitle is returned when a rule has no title.
	ErrMissingTitle = errors.New("rule title is empty")

	// ErrNoRules is returned when a database document contains no rules.
	ErrNoRules = errors.New("rule database contains no rules")
)
