// Package channel seals and opens SecureEnvelopes under a session key.
//
// Each envelope uses ChaCha20-Poly1305 with a fresh random 12-byte IV. The
// associated data covers the session id, both endpoints, the sequence number
// and the timestamp, so none of the envelope metadata can be altered without
// failing authentication. Open fails closed and never returns partial output.
package channel
