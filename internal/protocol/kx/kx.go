package kx

import (
	"crypto/sha256"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"

	"securelink/internal/domain"
	"securelink/internal/util/memzero"
)

const (
	// KeySize is the length of a derived session key.
	KeySize = 32

	label = "SPSEK-256"
)

// Context binds a derived key to one session transcript. Initiator and NonceA
// always belong to the side that sent INIT.
type Context struct {
	SessionID domain.SessionID
	Initiator domain.Username
	Responder domain.Username
	NonceA    string
	NonceB    string
}

// ContextFor builds the derivation context of s from its role-independent slots.
func ContextFor(s *domain.Session) Context {
	return Context{
		SessionID: s.ID,
		Initiator: s.Initiator(),
		Responder: s.Responder(),
		NonceA:    s.NonceInitiator(),
		NonceB:    s.NonceResponder(),
	}
}

func (c Context) salt() []byte {
	h := sha256.Sum256([]byte(string(c.SessionID) + "|salt"))
	return h[:]
}

func (c Context) info(suite string) []byte {
	l := label
	if suite != Default {
		l += "/" + suite
	}
	return []byte(strings.Join([]string{
		l,
		string(c.Initiator),
		string(c.Responder),
		c.NonceA,
		c.NonceB,
	}, "|"))
}

// GenerateEphemeral returns a fresh key pair from the named suite.
func GenerateEphemeral(suite string) (domain.EphemeralKeyPair, error) {
	s, err := Lookup(suite)
	if err != nil {
		return domain.EphemeralKeyPair{}, err
	}
	return s.Generate()
}

// DeriveSessionKey computes the shared secret between local and remotePub and
// expands it into a session key bound to ctx. An unusable remote key yields
// domain.ErrKeyAgreement.
func DeriveSessionKey(local domain.EphemeralKeyPair, remotePub []byte, ctx Context) ([]byte, error) {
	s, err := Lookup(local.Suite)
	if err != nil {
		return nil, err
	}
	if len(local.Private) == 0 {
		return nil, fmt.Errorf("%w: ephemeral key already discarded", domain.ErrKeyAgreement)
	}
	shared, err := s.Agree(local.Private, remotePub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyAgreement, err)
	}
	defer memzero.Zero(shared)

	r := hkdf.New(sha256.New, shared, ctx.salt(), ctx.info(s.Name()))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}
