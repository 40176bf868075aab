package domain

import (
	"errors"
	"fmt"
)

// Rejection causes. Every one of them is locally recoverable: the offending
// message is dropped and any existing session keeps its state.
var (
	// ErrSignatureInvalid is returned when a handshake signature does not verify.
	ErrSignatureInvalid = errors.New("signature invalid")

	// ErrStaleTimestamp is returned when a message timestamp is outside the skew window.
	ErrStaleTimestamp = errors.New("stale timestamp")

	// ErrUnknownSession is returned when a message names no local session.
	ErrUnknownSession = errors.New("unknown session")

	// ErrRoleMismatch is returned when a message arrives for a session in the wrong role or state.
	ErrRoleMismatch = errors.New("role mismatch")

	// ErrKeyAgreement is returned when the peer's ephemeral key is unusable.
	ErrKeyAgreement = errors.New("key agreement failure")

	// ErrDecryption is returned when an envelope fails authentication.
	ErrDecryption = errors.New("decryption failure")

	// ErrReplayDetected is returned when a sequence number or nonce is reused.
	ErrReplayDetected = errors.New("replay detected")

	// ErrTranscriptMismatch is returned when a message echoes a field that does
	// not match the session (endpoints, nonces, session id).
	ErrTranscriptMismatch = errors.New("transcript mismatch")
)

var (
	// ErrNotFound is returned by the directory when a user has no public key.
	ErrNotFound = errors.New("not found")

	// ErrSessionExists is returned when a session id is already in the table.
	ErrSessionExists = errors.New("session already exists")

	// ErrSessionNotEstablished is returned when sending on a session without a key.
	ErrSessionNotEstablished = errors.New("session not established")
)

// RejectError describes a dropped inbound message.
type RejectError struct {
	Kind      EventKind
	SessionID SessionID
	Peer      Username
	Err       error
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("rejected %s from %q (session %q): %v", e.Kind, e.Peer, e.SessionID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RejectError) Unwrap() error { return e.Err }

// Reject builds a RejectError, picking the event kind from the cause.
func Reject(id SessionID, peer Username, err error) *RejectError {
	return &RejectError{Kind: KindOf(err), SessionID: id, Peer: peer, Err: err}
}

// KindOf maps a rejection cause to the audit event kind that reports it.
func KindOf(err error) EventKind {
	switch {
	case errors.Is(err, ErrSignatureInvalid):
		return EventInvalidSignature
	case errors.Is(err, ErrStaleTimestamp):
		return EventStaleTimestamp
	case errors.Is(err, ErrReplayDetected):
		return EventReplayDetected
	case errors.Is(err, ErrDecryption):
		return EventDecryptionFailed
	case errors.Is(err, ErrUnknownSession):
		return EventUnknownSession
	case errors.Is(err, ErrRoleMismatch):
		return EventRoleMismatch
	case errors.Is(err, ErrKeyAgreement):
		return EventKeyAgreementFailed
	default:
		return EventKeyExchangeFailed
	}
}
