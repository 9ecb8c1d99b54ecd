// Package fetch retrieves the text of a location.
//
// Local files are read from disk. HTTP(S) resources are requested with
// configured headers under a per-attempt timeout, a retry budget with
// jittered exponential backoff, an optional rate limit and a global cap
// on requests in flight. The Router picks the right fetcher for a
// location and degrades to an empty document when networking has been
// disabled.
package fetch
