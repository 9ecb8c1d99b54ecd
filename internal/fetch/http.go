package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/leakscan/internal/model"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent when no User-Agent header is configured.
const DefaultUserAgent = "leakscan/1.0"

// HTTPFetcher performs GET requests with retries.
type HTTPFetcher struct {
	client      *http.Client
	headers     HeaderSet
	hostHeaders map[string]HeaderSet
	userAgent   string
	retry       int
	timeout     time.Duration
	maxBodySize int64
	sem         *semaphore.Weighted
	limiter     *rate.Limiter
	backoff     backoff
	observer    AttemptObserver
	logger      *slog.Logger
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithClient sets the HTTP client. Its own Timeout should be zero; the
// fetcher bounds each attempt itself.
func WithClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithHeaders sets the headers sent with every request.
func WithHeaders(h HeaderSet) HTTPOption {
	return func(f *HTTPFetcher) {
		f.headers = h
	}
}

// WithHostHeaders sets headers for specific hosts. They override the
// global headers of the same name. Host names match case-insensitively.
func WithHostHeaders(m map[string]HeaderSet) HTTPOption {
	return func(f *HTTPFetcher) {
		f.hostHeaders = make(map[string]HeaderSet, len(m))
		for host, hs := range m {
			f.hostHeaders[strings.ToLower(host)] = hs
		}
	}
}

// WithUserAgent sets the User-Agent used when the headers do not carry one.
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithRetry sets the number of additional attempts after the first.
func WithRetry(n int) HTTPOption {
	return func(f *HTTPFetcher) {
		if n >= 0 {
			f.retry = n
		}
	}
}

// WithTimeout bounds each attempt. Zero disables the bound.
func WithTimeout(d time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		if d >= 0 {
			f.timeout = d
		}
	}
}

// WithMaxBodySize caps the bytes read from a response. Zero disables the cap.
func WithMaxBodySize(n int64) HTTPOption {
	return func(f *HTTPFetcher) {
		if n >= 0 {
			f.maxBodySize = n
		}
	}
}

// WithRequestConcurrency caps the number of requests in flight across
// all tasks. Zero or less leaves requests unbounded.
func WithRequestConcurrency(n int) HTTPOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.sem = semaphore.NewWeighted(int64(n))
		} else {
			f.sem = nil
		}
	}
}

// WithRate limits requests to rps per second. Zero or less disables it.
func WithRate(rps float64) HTTPOption {
	return func(f *HTTPFetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			f.limiter = nil
		}
	}
}

// WithBackoff sets the base and maximum delay between attempts.
func WithBackoff(base, maxDelay time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		f.backoff = backoff{base: base, max: maxDelay}
	}
}

// WithObserver registers a hook called after every attempt.
func WithObserver(o AttemptObserver) HTTPOption {
	return func(f *HTTPFetcher) {
		f.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// NewHTTPFetcher creates an HTTPFetcher. Without options it makes a
// single attempt per location with no timeout and no concurrency cap.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    &http.Client{},
		userAgent: DefaultUserAgent,
		backoff:   backoff{base: defaultBaseDelay, max: defaultMaxDelay},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Fetch retrieves loc, making up to retry+1 attempts.
//
// Transport errors, per-attempt timeouts and 429/5xx responses are
// retried after a backoff. Any other response is returned with its body,
// whatever its status. Cancellation of ctx ends the fetch immediately.
// When every attempt fails the returned *Error wraps ErrRetriesExhausted
// and the last cause.
func (f *HTTPFetcher) Fetch(ctx context.Context, loc model.Location) (string, error) {
	attempts := f.retry + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := f.wait(ctx, attempt-2); err != nil {
				return "", &Error{Location: loc.Raw, Kind: KindNetwork, Attempts: attempt - 1, Err: err}
			}
		}

		body, retryable, err := f.attempt(ctx, loc)
		if err == nil {
			return body, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", &Error{Location: loc.Raw, Kind: KindNetwork, Attempts: attempt, Err: ctxErr}
		}
		if !retryable {
			return "", &Error{Location: loc.Raw, Kind: KindNetwork, Attempts: attempt, Err: err}
		}

		lastErr = err
		if attempt < attempts {
			f.logger.Debug("fetch attempt failed, retrying",
				"location", loc.Raw,
				"attempt", attempt,
				"error", err)
		}
	}

	return "", &Error{
		Location: loc.Raw,
		Kind:     KindNetwork,
		Attempts: attempts,
		Err:      fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr),
	}
}

// wait sleeps for the backoff before retry n, or until ctx is done.
func (f *HTTPFetcher) wait(ctx context.Context, n int) error {
	d := f.backoff.delay(n)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// attempt makes one request. The concurrency slot is held only for the
// duration of the request, never across a backoff.
func (f *HTTPFetcher) attempt(ctx context.Context, loc model.Location) (string, bool, error) {
	if f.sem != nil {
		if err := f.sem.Acquire(ctx, 1); err != nil {
			return "", false, err
		}
		defer f.sem.Release(1)
	}
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", false, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	attemptCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, loc.Raw, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	f.applyHeaders(req)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		if !retryableRequestError(err) {
			f.observer.observe(model.KindURL, OutcomeFailed, start)
			return "", false, fmt.Errorf("request failed: %w", err)
		}
		f.observer.observe(model.KindURL, OutcomeRetryable, start)
		return "", true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := f.readBody(resp.Body, loc)
	if err != nil {
		f.observer.observe(model.KindURL, OutcomeRetryable, start)
		return "", true, fmt.Errorf("failed to read body: %w", err)
	}

	if retryableStatus(resp.StatusCode) {
		f.observer.observe(model.KindURL, OutcomeRetryable, start)
		return "", true, &StatusError{Code: resp.StatusCode}
	}

	f.observer.observe(model.KindURL, OutcomeOK, start)
	return body, false, nil
}

// readBody reads at most maxBodySize bytes. A larger body is truncated
// and scanned as far as it was read.
func (f *HTTPFetcher) readBody(r io.Reader, loc model.Location) (string, error) {
	if f.maxBodySize <= 0 {
		data, err := io.ReadAll(r)
		return string(data), err
	}

	data, err := io.ReadAll(io.LimitReader(r, f.maxBodySize+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > f.maxBodySize {
		f.logger.Warn("response body truncated",
			"location", loc.Raw,
			"limit", f.maxBodySize)
		data = data[:f.maxBodySize]
	}
	return string(data), nil
}

func (f *HTTPFetcher) applyHeaders(req *http.Request) {
	headers := f.headers
	if host := hostOf(req.URL); host != "" {
		if hs, ok := f.hostHeaders[host]; ok {
			headers = headers.Merge(hs)
		}
	}
	headers.Apply(req.Header)
	if !headers.Has("User-Agent") {
		req.Header.Set("User-Agent", f.userAgent)
	}
}

func hostOf(u *url.URL) string {
	if u == nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

