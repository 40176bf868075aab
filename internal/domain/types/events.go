package types

import "time"

// EventKind classifies a security event.
type EventKind string

const (
	EventKeyExchangeInitiated EventKind = "KEY_EXCHANGE_INITIATED"
	EventKeyExchangeCompleted EventKind = "KEY_EXCHANGE_COMPLETED"
	EventKeyExchangeFailed    EventKind = "KEY_EXCHANGE_FAILED"
	EventKeyExchangeAborted   EventKind = "KEY_EXCHANGE_ABORTED"
	EventInvalidSignature     EventKind = "INVALID_SIGNATURE"
	EventStaleTimestamp       EventKind = "STALE_TIMESTAMP"
	EventReplayDetected       EventKind = "REPLAY_ATTACK_DETECTED"
	EventDecryptionFailed     EventKind = "MESSAGE_DECRYPTION_FAILED"
	EventUnknownSession       EventKind = "UNKNOWN_SESSION"
	EventRoleMismatch         EventKind = "ROLE_MISMATCH"
	EventKeyAgreementFailed   EventKind = "KEY_AGREEMENT_FAILED"
)

// Severity mirrors the levels of the audit trail.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// SecurityEvent is one audit record. It must never carry key material or
// plaintext.
type SecurityEvent struct {
	Kind      EventKind `json:"eventType"`
	Severity  Severity  `json:"severity"`
	SessionID SessionID `json:"sessionId,omitempty"`
	Local     Username  `json:"local,omitempty"`
	Peer      Username  `json:"peer,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Time      time.Time `json:"timestamp"`
}
