package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"

	"securelink/internal/domain"
)

// ErrBadPublicKey is returned when encoded key material has the wrong shape.
var ErrBadPublicKey = errors.New("malformed public key")

// GenerateEd25519 returns a new Ed25519 signing key pair.
func GenerateEd25519() (priv domain.Ed25519Private, pub domain.Ed25519Public, err error) {
	pk, sk, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return priv, pub, err
	}
	copy(priv[:], sk)
	copy(pub[:], pk)
	return priv, pub, nil
}

// SignEd25519 signs msg with priv and returns the signature.
func SignEd25519(priv domain.Ed25519Private, msg []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(priv[:]), msg)
}

// VerifyEd25519 verifies sig over msg with pub. Signatures of the wrong
// length and non-canonical S values are rejected.
func VerifyEd25519(pub domain.Ed25519Public, msg, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig)
}

// ParseEd25519Public decodes a base64 public key as published in the directory.
func ParseEd25519Public(b64 string) (domain.Ed25519Public, error) {
	var pub domain.Ed25519Public
	raw, err := FromB64(b64)
	if err != nil {
		return pub, ErrBadPublicKey
	}
	if len(raw) != ed25519.PublicKeySize {
		return pub, ErrBadPublicKey
	}
	copy(pub[:], raw)
	return pub, nil
}
