package types

import "encoding/json"

// MessageType tags the handshake message variants.
type MessageType string

const (
	MessageInit     MessageType = "KX_INIT"
	MessageResponse MessageType = "KX_RESPONSE"
	MessageConfirm  MessageType = "KX_CONFIRM"
)

// Sequence numbers fixed by the handshake.
const (
	SeqInit     = 1
	SeqResponse = 2
	SeqConfirm  = 3
)

// HandshakeBody carries the logical fields of a handshake message. Fields that
// a variant does not use stay empty. Binary values are base64 strings so the
// body canonicalises exactly as it travels.
type HandshakeBody struct {
	Type          MessageType `json:"type"`
	From          Username    `json:"from,omitempty"`
	To            Username    `json:"to,omitempty"`
	SessionID     SessionID   `json:"sessionId"`
	EphemeralPubA string      `json:"ephemeralPubA,omitempty"`
	EphemeralPubB string      `json:"ephemeralPubB,omitempty"`
	NonceA        string      `json:"nonceA,omitempty"`
	NonceB        string      `json:"nonceB,omitempty"`
	Seq           int         `json:"seq"`
	Timestamp     string      `json:"ts"`
}

// SignedHandshake is the INIT or RESPONSE payload: a body plus the sender's
// detached signature over the body's canonical encoding.
type SignedHandshake struct {
	Body      HandshakeBody `json:"body"`
	Signature []byte        `json:"signature"`
}

// ConfirmPayload is the plaintext of the encrypted KX_CONFIRM.
type ConfirmPayload struct {
	Type      MessageType `json:"type"`
	SessionID SessionID   `json:"sessionId"`
	NonceB    string      `json:"nonceB"`
	Seq       int         `json:"seq"`
	Timestamp string      `json:"ts"`
}

// ChatPayload is the plaintext of an application message.
type ChatPayload struct {
	Text      string `json:"text"`
	Timestamp string `json:"ts"`
	Seq       uint64 `json:"seq"`
}

// SecureEnvelope is an AEAD-protected payload bound to a session. IV and
// Ciphertext are base64-encoded by encoding/json.
type SecureEnvelope struct {
	From       Username  `json:"from"`
	To         Username  `json:"to"`
	SessionID  SessionID `json:"sessionId"`
	IV         []byte    `json:"iv"`
	Ciphertext []byte    `json:"ciphertext"`
	Sequence   uint64    `json:"seq"`
	Timestamp  string    `json:"ts"`
}

// FrameKind names the relay event a frame belongs to.
type FrameKind string

const (
	FrameInit    FrameKind = "kx-init"
	FrameResp    FrameKind = "kx-response"
	FrameConfirm FrameKind = "kx-confirm"
	FrameChat    FrameKind = "chat-message-encrypted"
)

// Frame is the unit the relay stores and forwards. The relay reads only the
// routing fields; Payload is opaque to it.
type Frame struct {
	Kind      FrameKind       `json:"kind"`
	From      Username        `json:"from"`
	To        Username        `json:"to"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// DecryptedMessage is an application message delivered to the local user.
type DecryptedMessage struct {
	SessionID SessionID `json:"sessionId"`
	From      Username  `json:"from"`
	To        Username  `json:"to"`
	Text      string    `json:"text"`
	Sequence  uint64    `json:"seq"`
	Timestamp string    `json:"ts"`
}
