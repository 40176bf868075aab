// Package crypto exposes the primitives used by securelink.
//
// Contents
//
//   - Ed25519 identity key generation, signing and verification
//     (GenerateEd25519, SignEd25519, VerifyEd25519, ParseEd25519Public)
//   - X25519 and X448 ephemeral key generation and Diffie-Hellman
//     (GenerateX25519, X25519, GenerateX448, X448)
//   - Strict base64 helpers for wire fields (B64, FromB64)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Diffie-Hellman helpers reject malformed and low-order peer keys so callers
// can surface a key-agreement failure instead of deriving from a weak secret.
package crypto
