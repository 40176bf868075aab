package types

// Ed25519Public is an Ed25519 signing public key.
type Ed25519Public [32]byte

// Slice returns the key as a []byte.
func (p Ed25519Public) Slice() []byte { return p[:] }

// Ed25519Private is an Ed25519 signing private key.
type Ed25519Private [64]byte

// Slice returns the key as a []byte.
func (k Ed25519Private) Slice() []byte { return k[:] }

// EphemeralKeyPair is a single-use key-agreement pair. Suite names the
// key-agreement primitive the bytes belong to.
type EphemeralKeyPair struct {
	Suite   string
	Public  []byte
	Private []byte
}
