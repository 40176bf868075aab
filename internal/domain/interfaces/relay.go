package interfaces

import (
	"context"

	domaintypes "securelink/internal/domain/types"
)

// Directory resolves long-term identity public keys. GetPublicKey returns the
// base64-encoded key or an error wrapping domain.ErrNotFound.
type Directory interface {
	PublishPublicKey(ctx context.Context, username domaintypes.Username, publicKey string) error
	GetPublicKey(ctx context.Context, username domaintypes.Username) (string, error)
}

// Transport ferries opaque frames between peers. It is not trusted.
type Transport interface {
	SendFrame(ctx context.Context, frame domaintypes.Frame) error
	FetchFrames(
		ctx context.Context,
		username domaintypes.Username,
		limit int,
	) ([]domaintypes.Frame, error)
	AckFrames(ctx context.Context, username domaintypes.Username, count int) error
}

// RelayClient is how we talk to the relay server, which also hosts the
// directory.
type RelayClient interface {
	Directory
	Transport
}
