package identity

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"securelink/internal/crypto"
	"securelink/internal/domain"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)

	// ErrBadUsername is returned for usernames that cannot appear in a handshake.
	ErrBadUsername = errors.New("username must be non-empty and must not contain '|' or whitespace")
)

// Service manages identity key creation and access using a backing store.
//
// The identity is an Ed25519 key pair bound to a username. The public half is
// published to the directory; the private half only ever leaves the store
// encrypted under the passphrase.
type Service struct {
	store domain.IdentityStore
}

// New returns an identity service backed by the given store.
func New(s domain.IdentityStore) *Service { return &Service{store: s} }

// GenerateIdentity creates a new identity for username, saves it encrypted with
// the passphrase, and returns the identity plus a short fingerprint of its
// public key.
func (s *Service) GenerateIdentity(
	passphrase string,
	username domain.Username,
) (domain.Identity, domain.Fingerprint, error) {
	if !isSecurePassphrase(passphrase) {
		return domain.Identity{}, "", ErrWeakPassphrase
	}
	if !ValidUsername(username) {
		return domain.Identity{}, "", ErrBadUsername
	}

	signingPrivateKey, signingPublicKey, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.Identity{}, "", err
	}

	id := domain.Identity{
		UserID: username,
		EdPub:  signingPublicKey,
		EdPriv: signingPrivateKey,
	}
	if err := s.store.SaveIdentity(passphrase, id); err != nil {
		return domain.Identity{}, "", err
	}
	return id, crypto.Fingerprint(id.EdPub.Slice()), nil
}

// LoadIdentity decrypts and returns the local identity.
func (s *Service) LoadIdentity(passphrase string) (domain.Identity, error) {
	return s.store.LoadIdentity(passphrase)
}

// FingerprintIdentity returns a short fingerprint of the local signing key.
func (s *Service) FingerprintIdentity(passphrase string) (domain.Fingerprint, error) {
	id, err := s.store.LoadIdentity(passphrase)
	if err != nil {
		return "", err
	}
	return crypto.Fingerprint(id.EdPub.Slice()), nil
}

// ValidUsername reports whether u can be used as a handshake endpoint.
func ValidUsername(u domain.Username) bool {
	if u == "" || strings.Contains(string(u), "|") {
		return false
	}
	return !strings.ContainsFunc(string(u), unicode.IsSpace)
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
