package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"securelink/internal/util/memzero"
)

// sealedVersion is the on-disk format of passphrase-sealed files.
const sealedVersion = 2

// KDF names.
const (
	kdfArgon2id = "argon2id"
	kdfScrypt   = "scrypt"
)

// errWrongPassphrase is returned when the passphrase is incorrect or the file
// has been modified.
var errWrongPassphrase = errors.New("wrong passphrase or corrupted file")

// kdfParams describes how the file key was derived. Only the fields of the
// named algorithm are set.
type kdfParams struct {
	Alg string `json:"alg"`

	Time      uint32 `json:"time,omitempty"`
	MemoryKiB uint32 `json:"memory_kib,omitempty"`
	Threads   uint8  `json:"threads,omitempty"`

	LogN uint8 `json:"log_n,omitempty"`
	R    int   `json:"r,omitempty"`
	P    int   `json:"p,omitempty"`
}

// defaultKDF is Argon2id at 64 MiB.
var defaultKDF = kdfParams{Alg: kdfArgon2id, Time: 1, MemoryKiB: 64 * 1024, Threads: 4}

var scryptKDF = kdfParams{Alg: kdfScrypt, LogN: 15, R: 8, P: 1}

// validate bounds parameters read back from disk so a tampered file cannot
// make unlocking arbitrarily expensive.
func (k kdfParams) validate() error {
	switch k.Alg {
	case kdfArgon2id:
		if k.Time < 1 || k.Time > 10 || k.MemoryKiB < 8*1024 || k.MemoryKiB > 1<<20 || k.Threads < 1 || k.Threads > 16 {
			return fmt.Errorf("unsupported argon2id parameters t=%d m=%dKiB p=%d", k.Time, k.MemoryKiB, k.Threads)
		}
	case kdfScrypt:
		if k.LogN < 14 || k.LogN > 20 || k.R != 8 || k.P < 1 || k.P > 4 {
			return fmt.Errorf("unsupported scrypt parameters N=2^%d r=%d p=%d", k.LogN, k.R, k.P)
		}
	default:
		return fmt.Errorf("unsupported kdf %q", k.Alg)
	}
	return nil
}

func (k kdfParams) deriveKey(passphrase string, salt []byte) ([]byte, error) {
	if err := k.validate(); err != nil {
		return nil, err
	}
	if k.Alg == kdfArgon2id {
		return argon2.IDKey([]byte(passphrase), salt, k.Time, k.MemoryKiB, k.Threads, chacha20poly1305.KeySize), nil
	}
	return scrypt.Key([]byte(passphrase), salt, 1<<k.LogN, k.R, k.P, chacha20poly1305.KeySize)
}

// sealedFile is the JSON layout of a passphrase-sealed file. The purpose label
// and salt are authenticated as associated data, so a file sealed for one use
// cannot be opened as another.
type sealedFile struct {
	V       int       `json:"v"`
	Purpose string    `json:"purpose"`
	KDF     kdfParams `json:"kdf"`
	Salt    []byte    `json:"salt"`
	Nonce   []byte    `json:"nonce"`
	Cipher  []byte    `json:"cipher"`
}

func (f sealedFile) ad() []byte {
	return append([]byte(fmt.Sprintf("securelink/%s/v%d|", f.Purpose, f.V)), f.Salt...)
}

// seal encrypts raw under a key derived from passphrase with XChaCha20-Poly1305.
func seal(purpose, passphrase string, raw []byte, k kdfParams) ([]byte, error) {
	f := sealedFile{
		V:       sealedVersion,
		Purpose: purpose,
		KDF:     k,
		Salt:    make([]byte, 16),
		Nonce:   make([]byte, chacha20poly1305.NonceSizeX),
	}
	if _, err := rand.Read(f.Salt); err != nil {
		return nil, err
	}
	if _, err := rand.Read(f.Nonce); err != nil {
		return nil, err
	}
	key, err := k.deriveKey(passphrase, f.Salt)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	f.Cipher = aead.Seal(nil, f.Nonce, raw, f.ad())
	return json.Marshal(f)
}

// open reverses seal. The returned plaintext should be wiped by the caller.
func open(purpose, passphrase string, b []byte) ([]byte, error) {
	var f sealedFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode sealed file: %w", err)
	}
	switch {
	case f.V != sealedVersion:
		return nil, fmt.Errorf("unsupported sealed file version %d", f.V)
	case f.Purpose != purpose:
		return nil, fmt.Errorf("sealed file holds %q, not %q", f.Purpose, purpose)
	case len(f.Nonce) != chacha20poly1305.NonceSizeX:
		return nil, errWrongPassphrase
	}
	key, err := f.KDF.deriveKey(passphrase, f.Salt)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, f.Nonce, f.Cipher, f.ad())
	if err != nil {
		return nil, errWrongPassphrase
	}
	return pt, nil
}
