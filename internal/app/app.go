package app

import (
	"securelink/internal/domain"
	"securelink/internal/protocol/handshake"
	"securelink/internal/services/identity"
	"securelink/internal/services/messenger"
)

// Node is a running local identity: its keys, handshake state machine and
// messenger.
type Node struct {
	Identity  domain.Identity
	Keys      *identity.KeyStore
	Machine   *handshake.Machine
	Messenger *messenger.Service
}
