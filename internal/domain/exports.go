package domain

import (
	interfaces "securelink/internal/domain/interfaces"
	types "securelink/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Username         = types.Username
	Fingerprint      = types.Fingerprint
	SessionID        = types.SessionID
	Identity         = types.Identity
	Ed25519Public    = types.Ed25519Public
	Ed25519Private   = types.Ed25519Private
	EphemeralKeyPair = types.EphemeralKeyPair
	Role             = types.Role
	State            = types.State
	Session          = types.Session
	MessageType      = types.MessageType
	HandshakeBody    = types.HandshakeBody
	SignedHandshake  = types.SignedHandshake
	ConfirmPayload   = types.ConfirmPayload
	ChatPayload      = types.ChatPayload
	SecureEnvelope   = types.SecureEnvelope
	FrameKind        = types.FrameKind
	Frame            = types.Frame
	DecryptedMessage = types.DecryptedMessage
	EventKind        = types.EventKind
	Severity         = types.Severity
	SecurityEvent    = types.SecurityEvent
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	Directory        = interfaces.Directory
	Transport        = interfaces.Transport
	RelayClient      = interfaces.RelayClient
	IdentityStore    = interfaces.IdentityStore
	ReplayStore      = interfaces.ReplayStore
	IdentityService  = interfaces.IdentityService
	Signer           = interfaces.Signer
	Verifier         = interfaces.Verifier
	IdentityKeyStore = interfaces.IdentityKeyStore
	MessageService   = interfaces.MessageService
	SecurityLog      = interfaces.SecurityLog
)

// Re-exported constants.
const (
	RoleInitiator = types.RoleInitiator
	RoleResponder = types.RoleResponder

	StateIdle             = types.StateIdle
	StateAwaitingResponse = types.StateAwaitingResponse
	StateAwaitingConfirm  = types.StateAwaitingConfirm
	StateConfirming       = types.StateConfirming
	StateEstablished      = types.StateEstablished
	StateAborted          = types.StateAborted

	MessageInit     = types.MessageInit
	MessageResponse = types.MessageResponse
	MessageConfirm  = types.MessageConfirm

	SeqInit     = types.SeqInit
	SeqResponse = types.SeqResponse
	SeqConfirm  = types.SeqConfirm

	FrameInit    = types.FrameInit
	FrameResp    = types.FrameResp
	FrameConfirm = types.FrameConfirm
	FrameChat    = types.FrameChat
)

// NewSession returns an Idle session.
var NewSession = types.NewSession

// Re-exported event kinds and severities.
const (
	EventKeyExchangeInitiated = types.EventKeyExchangeInitiated
	EventKeyExchangeCompleted = types.EventKeyExchangeCompleted
	EventKeyExchangeFailed    = types.EventKeyExchangeFailed
	EventKeyExchangeAborted   = types.EventKeyExchangeAborted
	EventInvalidSignature     = types.EventInvalidSignature
	EventStaleTimestamp       = types.EventStaleTimestamp
	EventReplayDetected       = types.EventReplayDetected
	EventDecryptionFailed     = types.EventDecryptionFailed
	EventUnknownSession       = types.EventUnknownSession
	EventRoleMismatch         = types.EventRoleMismatch
	EventKeyAgreementFailed   = types.EventKeyAgreementFailed

	SeverityInfo     = types.SeverityInfo
	SeverityWarning  = types.SeverityWarning
	SeverityError    = types.SeverityError
	SeverityCritical = types.SeverityCritical
)
