package fetch

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// HeaderSet is an ordered collection of request headers.
// Names are canonicalised; a name given more than once keeps every value
// in the order supplied.
type HeaderSet struct {
	names  []string
	values map[string][]string
}

// ParseHeaders parses "name: value" entries.
//
// Each entry is split at its first colon and both halves are trimmed, so
// values may themselves contain colons. An entry without a colon becomes a
// header named by the whole trimmed entry with an empty value. Empty
// entries are ignored.
func ParseHeaders(entries []string) (HeaderSet, error) {
	var hs HeaderSet
	for _, entry := range entries {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		name, value, _ := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if !httpguts.ValidHeaderFieldName(name) {
			return HeaderSet{}, fmt.Errorf("%w: name %q", ErrInvalidHeader, name)
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return HeaderSet{}, fmt.Errorf("%w: value for %q", ErrInvalidHeader, name)
		}
		hs.Add(name, value)
	}
	return hs, nil
}

// Add appends a value for name.
func (h *HeaderSet) Add(name, value string) {
	key := http.CanonicalHeaderKey(name)
	if h.values == nil {
		h.values = make(map[string][]string)
	}
	if _, ok := h.values[key]; !ok {
		h.names = append(h.names, key)
	}
	h.values[key] = append(h.values[key], value)
}

// Len returns the number of distinct header names.
func (h HeaderSet) Len() int {
	return len(h.names)
}

// Names returns the header names in first-seen order.
func (h HeaderSet) Names() []string {
	out := make([]string, len(h.names))
	copy(out, h.names)
	return out
}

// Values returns the values for name in the order they were added.
func (h HeaderSet) Values(name string) []string {
	vals := h.values[http.CanonicalHeaderKey(name)]
	out := make([]string, len(vals))
	copy(out, vals)
	return out
}

// Has reports whether name is present.
func (h HeaderSet) Has(name string) bool {
	_, ok := h.values[http.CanonicalHeaderKey(name)]
	return ok
}

// Merge returns a new set holding h overlaid with other.
// A name present in other replaces all of its values in h.
func (h HeaderSet) Merge(other HeaderSet) HeaderSet {
	var out HeaderSet
	for _, name := range h.names {
		if other.Has(name) {
			continue
		}
		for _, v := range h.values[name] {
			out.Add(name, v)
		}
	}
	for _, name := range other.names {
		for _, v := range other.values[name] {
			out.Add(name, v)
		}
	}
	return out
}

// Apply writes the set onto an outgoing header, replacing any values
// already present for the same names.
func (h HeaderSet) Apply(dst http.Header) {
	for _, name := range h.names {
		dst.Del(name)
		for _, v := range h.values[name] {
			dst.Add(name, v)
		}
	}
}
