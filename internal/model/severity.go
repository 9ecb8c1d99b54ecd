package model

import "strings"

// Severity represents the normalised risk level of a rule.
// Rule databases carry free-form severity strings; ParseSeverity maps
// them onto these levels so that summaries can group and order them.
type Severity int

const (
	// SeverityUnknown is used for severity strings that are not recognised.
	SeverityUnknown Severity = iota

	// SeverityInfo indicates informational patterns (e.g. public identifiers).
	SeverityInfo

	// SeverityLow indicates material that is rarely exploitable on its own.
	SeverityLow

	// SeverityMedium indicates material that warrants rotation.
	SeverityMedium

	// SeverityHigh indicates credentials that grant access to a service.
	SeverityHigh

	// SeverityCritical indicates private keys and root credentials.
	SeverityCritical
)

// severityNames maps accepted spellings to levels.
var severityNames = map[string]Severity{
	"info":          SeverityInfo,
	"informational": SeverityInfo,
	"low":           SeverityLow,
	"medium":        SeverityMedium,
	"moderate":      SeverityMedium,
	"high":          SeverityHigh,
	"critical":      SeverityCritical,
}

// ParseSeverity maps a database severity string onto a Severity.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseSeverity(s string) Severity {
	if level, ok := severityNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return level
	}
	return SeverityUnknown
}

// Severities returns all levels from most to least severe.
func Severities() []Severity {
	return []Severity{
		SeverityCritical,
		SeverityHigh,
		SeverityMedium,
		SeverityLow,
		SeverityInfo,
		SeverityUnknown,
	}
}

// String returns the lower-case name of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}
