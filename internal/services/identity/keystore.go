package identity

import (
	"context"
	"fmt"
	"time"

	lrucache "github.com/cognusion/go-cache-lru"

	"securelink/internal/crypto"
	"securelink/internal/domain"
)

const (
	// DefaultCacheTTL is how long a resolved peer key is reused.
	DefaultCacheTTL = 10 * time.Minute

	cacheMaxEntries = 4096
)

// KeyStore signs with the local identity and verifies peers against keys
// resolved through the directory. Resolved keys are cached to save round
// trips; a cached key is never taken as evidence that a message is fresh.
type KeyStore struct {
	id    domain.Identity
	dir   domain.Directory
	cache *lrucache.Cache
}

// NewKeyStore returns a KeyStore for id. A ttl of zero selects DefaultCacheTTL;
// a negative ttl disables caching.
func NewKeyStore(id domain.Identity, dir domain.Directory, ttl time.Duration) *KeyStore {
	k := &KeyStore{id: id, dir: dir}
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	if ttl > 0 {
		k.cache = lrucache.NewWithLRU(ttl, time.Minute, cacheMaxEntries)
	}
	return k
}

// UserID returns the local username.
func (k *KeyStore) UserID() domain.Username { return k.id.UserID }

// Sign signs msg with the local identity key.
func (k *KeyStore) Sign(msg []byte) []byte { return crypto.SignEd25519(k.id.EdPriv, msg) }

// Verify checks sig over msg against peer's published key. A lookup failure is
// returned as an error; a bad signature is (false, nil).
func (k *KeyStore) Verify(ctx context.Context, peer domain.Username, msg, sig []byte) (bool, error) {
	pub, err := k.PublicKey(ctx, peer)
	if err != nil {
		return false, err
	}
	return crypto.VerifyEd25519(pub, msg, sig), nil
}

// PublicKey resolves peer's identity key, consulting the cache first.
func (k *KeyStore) PublicKey(ctx context.Context, peer domain.Username) (domain.Ed25519Public, error) {
	if k.cache != nil {
		if v, ok := k.cache.Get(string(peer)); ok {
			return v.(domain.Ed25519Public), nil
		}
	}
	b64, err := k.dir.GetPublicKey(ctx, peer)
	if err != nil {
		return domain.Ed25519Public{}, fmt.Errorf("lookup %s: %w", peer, err)
	}
	pub, err := crypto.ParseEd25519Public(b64)
	if err != nil {
		return domain.Ed25519Public{}, fmt.Errorf("key for %s: %w", peer, err)
	}
	if k.cache != nil {
		k.cache.Set(string(peer), pub, lrucache.DefaultExpiration)
	}
	return pub, nil
}

// Forget drops any cached key for peer.
func (k *KeyStore) Forget(peer domain.Username) {
	if k.cache != nil {
		k.cache.Delete(string(peer))
	}
}

// Compile-time assertion that KeyStore implements domain.IdentityKeyStore.
var _ domain.IdentityKeyStore = (*KeyStore)(nil)
