package types

import (
	"errors"
	"time"

	"securelink/internal/util/memzero"
)

// Role is the part a local node plays in a handshake.
type Role int

const (
	RoleInitiator Role = iota + 1
	RoleResponder
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleInitiator:
		return "initiator"
	case RoleResponder:
		return "responder"
	default:
		return "unknown"
	}
}

// State is a session's position in the handshake state machine.
type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
	StateAwaitingConfirm
	StateConfirming
	StateEstablished
	StateAborted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateAwaitingConfirm:
		return "awaiting_confirm"
	case StateConfirming:
		return "confirming"
	case StateEstablished:
		return "established"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Pending reports whether the session is mid-handshake and subject to the
// handshake timeout.
func (s State) Pending() bool {
	return s == StateAwaitingResponse || s == StateAwaitingConfirm || s == StateConfirming
}

var errSessionKeySet = errors.New("session key already set")

// Session is the per-handshake record owned by the local node. It never
// leaves process memory.
type Session struct {
	ID             SessionID
	Role           Role
	Local          Username
	Peer           Username
	LocalEphemeral *EphemeralKeyPair
	NonceLocal     string
	NonceRemote    string
	State          State
	SendSequence   uint64
	RecvSequence   uint64
	CreatedAt      time.Time
	EstablishedAt  time.Time

	sessionKey []byte
}

// NewSession returns an Idle session.
func NewSession(id SessionID, role Role, local, peer Username, now time.Time) *Session {
	return &Session{
		ID:        id,
		Role:      role,
		Local:     local,
		Peer:      peer,
		State:     StateIdle,
		CreatedAt: now,
	}
}

// SessionKey returns the derived key, or nil before key agreement completes.
func (s *Session) SessionKey() []byte { return s.sessionKey }

// HasSessionKey reports whether key agreement has completed.
func (s *Session) HasSessionKey() bool { return s.sessionKey != nil }

// SetSessionKey installs the derived key. It may be called once.
func (s *Session) SetSessionKey(k []byte) error {
	if s.sessionKey != nil {
		return errSessionKeySet
	}
	s.sessionKey = append([]byte(nil), k...)
	return nil
}

// Initiator returns the username occupying the initiator slot.
func (s *Session) Initiator() Username {
	if s.Role == RoleInitiator {
		return s.Local
	}
	return s.Peer
}

// Responder returns the username occupying the responder slot.
func (s *Session) Responder() Username {
	if s.Role == RoleInitiator {
		return s.Peer
	}
	return s.Local
}

// NonceInitiator returns nonceA regardless of the local role.
func (s *Session) NonceInitiator() string {
	if s.Role == RoleInitiator {
		return s.NonceLocal
	}
	return s.NonceRemote
}

// NonceResponder returns nonceB regardless of the local role.
func (s *Session) NonceResponder() string {
	if s.Role == RoleInitiator {
		return s.NonceRemote
	}
	return s.NonceLocal
}

// DiscardEphemeral wipes and drops the ephemeral private key.
func (s *Session) DiscardEphemeral() {
	if s.LocalEphemeral == nil {
		return
	}
	memzero.Zero(s.LocalEphemeral.Private)
	s.LocalEphemeral.Private = nil
}

// Wipe zeroes all key material held by the session.
func (s *Session) Wipe() {
	s.DiscardEphemeral()
	memzero.Zero(s.sessionKey)
	s.sessionKey = nil
}
