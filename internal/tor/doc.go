// Package tor routes remote fetches through a SOCKS5 proxy.
//
// A Client wraps any SOCKS5 endpoint, typically a local Tor daemon, and
// hands out HTTP transports that dial through it. EmbeddedTor starts a
// private Tor daemon through tornago for runs that should not touch the
// network directly but have no Tor daemon available.
package tor
