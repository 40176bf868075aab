package interfaces

import (
	"context"

	domaintypes "securelink/internal/domain/types"
)

// IdentityService creates, retrieves, and inspects your identity keys.
type IdentityService interface {
	GenerateIdentity(passphrase string, username domaintypes.Username) (
		domaintypes.Identity,
		domaintypes.Fingerprint,
		error,
	)
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
	FingerprintIdentity(passphrase string) (domaintypes.Fingerprint, error)
}

// Signer produces detached signatures with the local identity key.
type Signer interface {
	Sign(msg []byte) []byte
}

// Verifier checks a peer's detached signature. The error is reserved for key
// lookup failures; a bad signature is (false, nil).
type Verifier interface {
	Verify(
		ctx context.Context,
		peer domaintypes.Username,
		msg []byte,
		sig []byte,
	) (bool, error)
}

// IdentityKeyStore is the signing and verification surface of the handshake.
type IdentityKeyStore interface {
	Signer
	Verifier
	UserID() domaintypes.Username
}

// MessageService drives a local node over the relay.
type MessageService interface {
	Connect(ctx context.Context, peer domaintypes.Username) (domaintypes.SessionID, error)
	SendMessage(ctx context.Context, id domaintypes.SessionID, text string) error
	Poll(ctx context.Context, limit int) ([]domaintypes.DecryptedMessage, error)
	Close(id domaintypes.SessionID) error
}

// SecurityLog receives audit events.
type SecurityLog interface {
	Record(ctx context.Context, event domaintypes.SecurityEvent)
}
