// Package freshness rejects stale and replayed protocol messages.
//
// A Guard checks timestamps against a symmetric clock-skew window, enforces
// strictly increasing per-direction sequence numbers, and remembers single-use
// values (session ids and handshake nonces) for twice the skew window, which
// outlives any message that could still pass the timestamp check.
//
// With a domain.ReplayStore attached, remembered values survive a restart.
package freshness
