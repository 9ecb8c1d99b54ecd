package fetch

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

var (
	// ErrRetriesExhausted is wrapped by the error returned when every
	// attempt of a network fetch failed.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrNoNetwork reports that a URL was requested while network
	// fetching is disabled.
	ErrNoNetwork = errors.New("network fetching is disabled")

	// ErrInvalidHeader is returned for a header entry with an unusable name.
	ErrInvalidHeader = errors.New("invalid header")
)

// Kind classifies a fetch failure.
type Kind int

const (
	// KindFile is a local read failure.
	KindFile Kind = iota + 1
	// KindNetwork is an HTTP failure after the retry budget was spent,
	// or a non-retryable request error.
	KindNetwork
)

// String returns the label used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Error is the task-level failure of a fetch.
type Error struct {
	Location string
	Kind     Kind
	// Attempts is the number of requests made. It is 1 for file reads.
	Attempts int
	Err      error
}

// Error implements error.
func (e *Error) Error() string {
	if e.Kind == KindNetwork && e.Attempts > 1 {
		return fmt.Sprintf("%s fetch of %s failed after %d attempts: %v", e.Kind, e.Location, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s fetch of %s failed: %v", e.Kind, e.Location, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// StatusError is a retryable HTTP status (429 or 5xx).
type StatusError struct {
	Code int
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// retryableStatus reports whether a response status should be retried.
// Other statuses are returned to the caller with their body.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// retryableRequestError reports whether a transport failure from
// http.Client.Do may succeed on a later attempt. Certificate failures,
// a TLS handshake against a plain-text server and URLs the client cannot
// dial at all fail the same way every time.
func retryableRequestError(err error) bool {
	var (
		certErr      *tls.CertificateVerificationError
		recordErr    tls.RecordHeaderError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)
	switch {
	case errors.As(err, &certErr),
		errors.As(err, &recordErr),
		errors.As(err, &authorityErr),
		errors.As(err, &hostnameErr),
		errors.As(err, &invalidErr):
		return false
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		// http.Client reports a scheme without a transport as an
		// untyped error.
		if strings.HasPrefix(urlErr.Err.Error(), "unsupported protocol scheme") {
			return false
		}
	}
	return true
}
