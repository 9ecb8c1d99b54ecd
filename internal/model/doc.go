// Package model defines the core data structures shared by leakscan packages.
//
// This package contains the following main types:
//   - Location: a classified content source (local file or URL)
//   - Rule: a named, severity-tagged detection pattern
//   - MatchResult: one occurrence of one rule within one document
//   - Severity: a normalised severity level used for summaries
//
// Types in this package are immutable once constructed and are shared
// read-only between concurrently running tasks.
package model
