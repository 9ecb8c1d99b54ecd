package model

import "strings"

// LocationKind tells which fetcher resolves a location.
type LocationKind int

const (
	// KindFile is a path on local storage.
	KindFile LocationKind = iota

	// KindURL is an http:// or https:// address.
	KindURL
)

// String returns the kind name used in logs and metrics labels.
func (k LocationKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindURL:
		return "url"
	default:
		return "unknown"
	}
}

// Location identifies a content source.
// It is classified exactly once by Classify and never re-tested afterwards.
type Location struct {
	// Raw is the location exactly as supplied by the user or the input feed.
	Raw string

	// Kind is the classification of Raw.
	Kind LocationKind
}

// urlSchemes are the prefixes that turn a location into a URL location.
var urlSchemes = []string{"http://", "https://"}

// Classify resolves raw into a tagged Location.
// A location is a URL when it starts with http:// or https:// (the scheme
// is compared case-insensitively); anything else is a file path.
func Classify(raw string) Location {
	for _, scheme := range urlSchemes {
		if len(raw) >= len(scheme) && strings.EqualFold(raw[:len(scheme)], scheme) {
			return Location{Raw: raw, Kind: KindURL}
		}
	}
	return Location{Raw: raw, Kind: KindFile}
}

// IsURL reports whether the location is fetched over the network.
func (l Location) IsURL() bool {
	return l.Kind == KindURL
}

// String returns the raw location.
func (l Location) String() string {
	return l.Raw
}
