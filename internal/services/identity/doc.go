// Package identity manages the local long-term identity.
//
// Service enforces the passphrase policy, generates the Ed25519 signing key
// pair, and persists it via the domain.IdentityStore. KeyStore is the signing
// and verification surface used by the handshake; it resolves peer keys
// through the directory and caches them.
package identity
