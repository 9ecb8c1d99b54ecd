package config

import "errors"

// Validation errors returned by Config.Validate.
var (
	// ErrNoLocation is returned when no location or input feed was given.
	ErrNoLocation = errors.New("no location specified: provide a file, a URL or - to read locations from stdin")

	// ErrInvalidRetry is returned for a negative retry count.
	ErrInvalidRetry = errors.New("invalid retry count: must be non-negative")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned for a negative concurrency limit.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be non-negative (0 means unbounded)")

	// ErrInvalidRate is returned for a negative request rate.
	ErrInvalidRate = errors.New("invalid rate: must be non-negative (0 means unlimited)")

	// ErrConflictingTransport is returned when --tor and --proxy are combined.
	ErrConflictingTransport = errors.New("conflicting transports: --tor and --proxy cannot be used together")

	// ErrInvalidMaxBodySize is returned for a negative body size limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative (0 means unlimited)")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
