// Package scanner evaluates text against a rule database.
//
// Scan returns a lazy sequence: rules are evaluated one at a time in
// database order and each occurrence is handed to the consumer as soon
// as its rule has been evaluated. A consumer that stops early prevents
// later rules from running at all.
package scanner

import (
	"iter"

	"github.com/nao1215/leakscan/internal/model"
	"github.com/nao1215/leakscan/internal/rules"
)

// Scan yields one MatchResult per occurrence per rule, in rule order and
// then left-to-right occurrence order. Matches of one rule never overlap.
//
// Scan has no side effects and keeps no state between calls; scanning the
// same text with the same database always yields the same sequence.
func Scan(text string, db *rules.Database) iter.Seq[model.MatchResult] {
	return func(yield func(model.MatchResult) bool) {
		if db == nil || text == "" {
			return
		}
		for i := range db.Len() {
			rule := db.Rule(i)
			if rule.Pattern == nil {
				continue
			}
			for _, loc := range rule.Pattern.FindAllStringIndex(text, -1) {
				result := model.MatchResult{
					Rule:  rule,
					Index: rule.Index,
					Find:  text[loc[0]:loc[1]],
				}
				if !yield(result) {
					return
				}
			}
		}
	}
}

// Collect materialises the full result of Scan.
// It is intended for tests and small inputs; the pipeline consumes Scan lazily.
func Collect(text string, db *rules.Database) []model.MatchResult {
	var out []model.MatchResult
	for m := range Scan(text, db) {
		out = append(out, m)
	}
	return out
}

// Count returns the number of matches Scan would yield.
func Count(text string, db *rules.Database) int {
	n := 0
	for range Scan(text, db) {
		n++
	}
	return n
}
