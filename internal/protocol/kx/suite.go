package kx

import (
	"fmt"
	"sort"

	"securelink/internal/crypto"
	"securelink/internal/domain"
)

// Suite is a Diffie-Hellman group usable for ephemeral key agreement.
type Suite interface {
	Name() string
	Generate() (domain.EphemeralKeyPair, error)
	Agree(localPriv, remotePub []byte) ([]byte, error)
}

const (
	SuiteX25519 = "x25519"
	SuiteX448   = "x448"
)

// Default is the suite used when none is configured.
const Default = SuiteX25519

type x25519Suite struct{}

func (x25519Suite) Name() string { return SuiteX25519 }

func (x25519Suite) Generate() (domain.EphemeralKeyPair, error) {
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.EphemeralKeyPair{}, err
	}
	return domain.EphemeralKeyPair{Suite: SuiteX25519, Public: pub, Private: priv}, nil
}

func (x25519Suite) Agree(localPriv, remotePub []byte) ([]byte, error) {
	return crypto.X25519(localPriv, remotePub)
}

type x448Suite struct{}

func (x448Suite) Name() string { return SuiteX448 }

func (x448Suite) Generate() (domain.EphemeralKeyPair, error) {
	priv, pub, err := crypto.GenerateX448()
	if err != nil {
		return domain.EphemeralKeyPair{}, err
	}
	return domain.EphemeralKeyPair{Suite: SuiteX448, Public: pub, Private: priv}, nil
}

func (x448Suite) Agree(localPriv, remotePub []byte) ([]byte, error) {
	return crypto.X448(localPriv, remotePub)
}

var suites = map[string]Suite{
	SuiteX25519: x25519Suite{},
	SuiteX448:   x448Suite{},
}

// Lookup returns the suite registered under name.
func Lookup(name string) (Suite, error) {
	if name == "" {
		name = Default
	}
	s, ok := suites[name]
	if !ok {
		return nil, fmt.Errorf("kx: unknown suite %q (have %v)", name, Names())
	}
	return s, nil
}

// Names lists the registered suites.
func Names() []string {
	out := make([]string, 0, len(suites))
	for n := range suites {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
