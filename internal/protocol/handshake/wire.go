package handshake

import (
	"encoding/json"
	"fmt"

	"securelink/internal/domain"
	"securelink/internal/protocol/canon"
)

func (m *Machine) signedFrame(kind domain.FrameKind, body domain.HandshakeBody) (domain.Frame, error) {
	msg, err := canon.Encode(body)
	if err != nil {
		return domain.Frame{}, err
	}
	payload, err := json.Marshal(domain.SignedHandshake{Body: body, Signature: m.keys.Sign(msg)})
	if err != nil {
		return domain.Frame{}, err
	}
	return domain.Frame{Kind: kind, From: body.From, To: body.To, Payload: payload}, nil
}

func envelopeFrame(kind domain.FrameKind, env domain.SecureEnvelope) (domain.Frame, error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return domain.Frame{}, err
	}
	return domain.Frame{Kind: kind, From: env.From, To: env.To, Payload: payload}, nil
}

// decodeSigned parses a handshake payload and checks the variant tag, the
// fixed sequence number and the frame routing against the signed body.
func decodeSigned(f domain.Frame, want domain.MessageType, seq int) (domain.SignedHandshake, error) {
	var sh domain.SignedHandshake
	if err := json.Unmarshal(f.Payload, &sh); err != nil {
		return sh, fmt.Errorf("%w: malformed handshake: %v", domain.ErrSignatureInvalid, err)
	}
	b := sh.Body
	switch {
	case b.Type != want:
		return sh, mismatch("type", b.Type, want)
	case b.Seq != seq:
		return sh, fmt.Errorf("%w: %s carries seq %d", domain.ErrReplayDetected, want, b.Seq)
	case b.SessionID == "":
		return sh, mismatch("sessionId", `""`, "non-empty")
	case f.From != "" && f.From != b.From:
		return sh, mismatch("frame sender", f.From, b.From)
	case f.To != "" && f.To != b.To:
		return sh, mismatch("frame recipient", f.To, b.To)
	}
	return sh, nil
}

func decodeEnvelope(f domain.Frame) (domain.SecureEnvelope, error) {
	var env domain.SecureEnvelope
	if err := json.Unmarshal(f.Payload, &env); err != nil {
		return env, fmt.Errorf("%w: malformed envelope: %v", domain.ErrDecryption, err)
	}
	switch {
	case env.SessionID == "":
		return env, mismatch("sessionId", `""`, "non-empty")
	case f.From != "" && f.From != env.From:
		return env, mismatch("frame sender", f.From, env.From)
	case f.To != "" && f.To != env.To:
		return env, mismatch("frame recipient", f.To, env.To)
	}
	return env, nil
}
