package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"securelink/internal/domain"
	"securelink/internal/util/memzero"
)

const (
	idFilename = "identity.json.enc"
	idPurpose  = "identity"
)

// ErrNoIdentity is returned when no identity has been created yet.
var ErrNoIdentity = errors.New("no identity found (run init first)")

// IdentityFileStore persists the local identity to disk.
type IdentityFileStore struct {
	dir string
	kdf kdfParams
	mu  sync.Mutex
}

// NewIdentityFileStore returns an IdentityFileStore rooted at dir. New files
// are sealed with Argon2id.
func NewIdentityFileStore(dir string) *IdentityFileStore {
	return &IdentityFileStore{dir: dir, kdf: defaultKDF}
}

// SetKDF selects the passphrase KDF ("argon2id" or "scrypt") for files written
// from now on. Existing files open with whatever KDF they were sealed with.
func (s *IdentityFileStore) SetKDF(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch name {
	case kdfArgon2id:
		s.kdf = defaultKDF
	case kdfScrypt:
		s.kdf = scryptKDF
	default:
		return fmt.Errorf("unknown kdf %q", name)
	}
	return nil
}

// Path returns the location of the encrypted identity file.
func (s *IdentityFileStore) Path() string { return filepath.Join(s.dir, idFilename) }

// Exists reports whether an identity file is present.
func (s *IdentityFileStore) Exists() bool {
	_, err := os.Stat(s.Path())
	return err == nil
}

// SaveIdentity writes the encrypted identity to disk.
func (s *IdentityFileStore) SaveIdentity(passphrase string, id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	defer memzero.Zero(raw)

	ct, err := seal(idPurpose, passphrase, raw, s.kdf)
	if err != nil {
		return err
	}
	return replace(s.Path(), ct)
}

// LoadIdentity reads and decrypts the identity.
func (s *IdentityFileStore) LoadIdentity(passphrase string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, found, err := load(s.Path())
	if err != nil {
		return domain.Identity{}, err
	}
	if !found {
		return domain.Identity{}, ErrNoIdentity
	}
	pt, err := open(idPurpose, passphrase, b)
	if err != nil {
		return domain.Identity{}, err
	}
	defer memzero.Zero(pt)

	var id domain.Identity
	if err := json.Unmarshal(pt, &id); err != nil {
		return domain.Identity{}, fmt.Errorf("decode identity: %w", err)
	}
	return id, nil
}

// Compile-time assertion that IdentityFileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityFileStore)(nil)
