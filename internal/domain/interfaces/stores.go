package interfaces

import (
	"time"

	domaintypes "securelink/internal/domain/types"
)

// IdentityStore persists your long-term identity keys.
type IdentityStore interface {
	SaveIdentity(passphrase string, id domaintypes.Identity) error
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
}

// ReplayStore persists single-use handshake values with their expiry so replay
// protection can outlive the process.
type ReplayStore interface {
	LoadTombstones() (map[string]time.Time, error)
	SaveTombstones(entries map[string]time.Time) error
}
