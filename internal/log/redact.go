package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"
)

// MaskValue replaces redacted values and substrings.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys whose value is always masked.
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"api_key":             true,
	"apikey":              true,
	"api-key":             true,
	"password":            true,
	"passwd":              true,
	"secret":              true,
	"token":               true,
	"session":             true,
	"session_id":          true,
	"credentials":         true,
}

// sensitiveKeywords mark a key as sensitive when contained in it.
// A bare "key" is left out: it matches too many harmless names.
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "auth", "credential", "private",
}

// builtinPatterns match credential-looking substrings in any string value.
var builtinPatterns = []*regexp.Regexp{
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*`),
	regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]+`),
	regexp.MustCompile(`(?i)\bbasic\s+[A-Za-z0-9+/]+=*`),
	regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
	regexp.MustCompile(`-----BEGIN[A-Z ]*PRIVATE KEY-----`),
}

// RedactingHandler wraps an slog.Handler and masks sensitive attribute
// values before they reach it.
type RedactingHandler struct {
	handler  slog.Handler
	patterns []*regexp.Regexp
}

// NewRedactingHandler wraps handler. Extra patterns are matched in
// addition to the built-in ones; nil entries are skipped. A nil handler
// falls back to slog.Default().Handler().
func NewRedactingHandler(handler slog.Handler, extra ...*regexp.Regexp) *RedactingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	patterns := slices.Clone(builtinPatterns)
	for _, p := range extra {
		if p != nil {
			patterns = append(patterns, p)
		}
	}
	return &RedactingHandler{handler: handler, patterns: patterns}
}

// Enabled delegates to the wrapped handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle redacts the message and every attribute, then passes the record on.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, h.redactString(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, out)
}

// WithAttrs redacts attrs before attaching them.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a)
	}
	return &RedactingHandler{handler: h.handler.WithAttrs(redacted), patterns: h.patterns}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{handler: h.handler.WithGroup(name), patterns: h.patterns}
}

func (h *RedactingHandler) redactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		redacted := make([]slog.Attr, len(group))
		for i, ga := range group {
			redacted[i] = h.redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, h.redactString(a.Value.String()))
	case slog.KindAny:
		// Errors and Stringers carry URLs and header values in their text.
		if err, ok := a.Value.Any().(error); ok && err != nil {
			return slog.String(a.Key, h.redactString(err.Error()))
		}
	}
	return a
}

// redactString masks every substring of s matched by a pattern.
func (h *RedactingHandler) redactString(s string) string {
	for _, p := range h.patterns {
		s = p.ReplaceAllLiteralString(s, MaskValue)
	}
	return s
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	if sensitiveKeys[k] {
		return true
	}
	for _, kw := range sensitiveKeywords {
		if strings.Contains(k, kw) {
			return true
		}
	}
	return false
}

// New returns a logger writing to w through a RedactingHandler. Verbose
// lowers the level from Warn to Debug; asJSON selects the JSON handler.
func New(w io.Writer, verbose, asJSON bool, patterns ...*regexp.Regexp) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if asJSON {
		base = slog.NewJSONHandler(w, opts)
	} else {
		base = slog.NewTextHandler(w, opts)
	}
	return slog.New(NewRedactingHandler(base, patterns...))
}
