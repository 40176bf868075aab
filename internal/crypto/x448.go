package crypto

import (
	"crypto/rand"

	"github.com/cloudflare/circl/dh/x448"
)

// GenerateX448 returns a fresh X448 key pair.
func GenerateX448() (priv, pub []byte, err error) {
	var sk, pk x448.Key
	if _, err = rand.Read(sk[:]); err != nil {
		return nil, nil, err
	}
	x448.KeyGen(&pk, &sk)
	priv = append([]byte(nil), sk[:]...)
	pub = append([]byte(nil), pk[:]...)
	return priv, pub, nil
}

// X448 computes the Diffie-Hellman shared secret. Public keys of the wrong
// length or of low order are rejected.
func X448(priv, pub []byte) ([]byte, error) {
	if len(pub) != x448.Size || len(priv) != x448.Size {
		return nil, ErrBadPublicKey
	}
	var sk, pk, shared x448.Key
	copy(sk[:], priv)
	copy(pk[:], pub)
	if !x448.Shared(&shared, &sk, &pk) {
		return nil, ErrLowOrderPoint
	}
	return append([]byte(nil), shared[:]...), nil
}
