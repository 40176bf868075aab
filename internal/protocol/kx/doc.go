// Package kx implements ephemeral key agreement and session key derivation.
//
// A Suite generates single-use key pairs and computes raw Diffie-Hellman
// secrets. DeriveSessionKey runs HKDF-SHA256 over that secret with a salt taken
// from the session id and an info string binding both endpoint identities and
// both nonces. The initiator always occupies the first identity and nonce slot,
// whichever side is deriving.
package kx
