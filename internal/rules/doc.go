// Package rules provides the rule database consumed by the scanner.
//
// A database is an ordered, immutable collection of model.Rule values.
// The position of a rule in the database is its ordinal index; it is
// assigned once when the database is built and is reported with every
// match. Databases come from three places:
//
//   - Builtin: the embedded default rule set
//   - Load / LoadFile: a YAML document of {title, severity, regex} entries
//   - FromGitleaks / LoadGitleaksConfig: rules derived from gitleaks
//
// Pattern compilation happens at load time, so a malformed pattern is a
// configuration error reported before any location is fetched.
package rules
