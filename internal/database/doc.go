// Package database keeps a history of scan runs in SQLite.
//
// Each run gets a row in runs and one row per distinct finding in
// findings. Matched text is stored masked; findings are compared across
// runs by a fingerprint of the rule title and the full match, so the
// history can tell which leaks are new and which have been fixed without
// holding the secrets themselves.
package database
