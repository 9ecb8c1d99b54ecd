// Package log builds the slog loggers used by leakscan.
//
// Every logger writes through a RedactingHandler. A scanner routinely
// handles credentials: header values passed with -H, tokens embedded in
// URLs, and the secrets it finds. The handler masks attributes whose key
// names a credential and replaces any substring of a string value that
// matches a secret pattern, so diagnostics stay safe to share.
//
//	logger := log.New(os.Stderr, verbose, false, db.Patterns()...)
//	slog.SetDefault(logger)
package log
