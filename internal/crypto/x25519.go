package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/curve25519"
)

// ErrLowOrderPoint is returned when a Diffie-Hellman result is all zeros.
var ErrLowOrderPoint = errors.New("low-order public key")

// GenerateX25519 returns a fresh Curve25519 key pair.
// The private key is clamped per RFC 7748.
func GenerateX25519() (priv, pub []byte, err error) {
	priv = make([]byte, curve25519.ScalarSize)
	if _, err = rand.Read(priv); err != nil {
		return nil, nil, err
	}
	clamp(priv)
	pub, err = curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, nil, err
	}
	return priv, pub, nil
}

// X25519 computes the Diffie-Hellman shared secret. Public keys of the wrong
// length or of low order are rejected.
func X25519(priv, pub []byte) ([]byte, error) {
	if len(pub) != curve25519.PointSize {
		return nil, ErrBadPublicKey
	}
	out, err := curve25519.X25519(priv, pub)
	if err != nil {
		return nil, ErrLowOrderPoint
	}
	return out, nil
}

func clamp(k []byte) {
	k[0] &= 248
	k[31] &= 127
	k[31] |= 64
}
