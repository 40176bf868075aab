package handshake

import (
	"context"
	"encoding/json"
	"fmt"

	"securelink/internal/domain"
	"securelink/internal/protocol/channel"
	"securelink/internal/protocol/freshness"
)

// Encrypt seals text for the peer of an established session and returns the
// chat frame. The envelope takes the next send sequence number.
func (m *Machine) Encrypt(ctx context.Context, id domain.SessionID, text string) (domain.Frame, error) {
	if err := ctx.Err(); err != nil {
		return domain.Frame{}, err
	}
	var out domain.Frame
	err := m.table.With(id, func(s *domain.Session) error {
		if s.State != domain.StateEstablished || !s.HasSessionKey() {
			return fmt.Errorf("%w: %s is %s", domain.ErrSessionNotEstablished, id, s.State)
		}
		seq := s.SendSequence + 1
		ts := m.guard.Stamp()
		pt, err := json.Marshal(domain.ChatPayload{Text: text, Timestamp: ts, Seq: seq})
		if err != nil {
			return err
		}
		env, err := channel.Seal(s.SessionKey(), channel.Header{
			From:      s.Local,
			To:        s.Peer,
			SessionID: s.ID,
			Sequence:  seq,
			Timestamp: ts,
		}, pt)
		if err != nil {
			return err
		}
		if out, err = envelopeFrame(domain.FrameChat, env); err != nil {
			return err
		}
		s.SendSequence = seq
		return nil
	})
	return out, err
}

// Decrypt authenticates a chat frame for an established session and returns
// the message. Replayed or reordered sequence numbers are rejected; gaps are
// accepted.
func (m *Machine) Decrypt(ctx context.Context, f domain.Frame) (domain.DecryptedMessage, error) {
	env, err := decodeEnvelope(f)
	if err != nil {
		return domain.DecryptedMessage{}, m.reject(ctx, env.SessionID, f.From, err)
	}
	if err := m.guard.CheckTimestamp(env.Timestamp); err != nil {
		return domain.DecryptedMessage{}, m.reject(ctx, env.SessionID, env.From, err)
	}

	var msg domain.DecryptedMessage
	err = m.table.With(env.SessionID, func(s *domain.Session) error {
		if s.State != domain.StateEstablished {
			return fmt.Errorf("%w: message for session in state %s", domain.ErrRoleMismatch, s.State)
		}
		switch {
		case env.From != s.Peer:
			return mismatch("from", env.From, s.Peer)
		case env.To != s.Local:
			return mismatch("to", env.To, s.Local)
		}
		if err := freshness.CheckSequence(s.RecvSequence, env.Sequence); err != nil {
			return err
		}
		pt, err := channel.Open(s.SessionKey(), env)
		if err != nil {
			return err
		}
		var p domain.ChatPayload
		if err := json.Unmarshal(pt, &p); err != nil {
			return fmt.Errorf("%w: malformed message: %v", domain.ErrDecryption, err)
		}
		if p.Seq != env.Sequence {
			return mismatch("payload seq", p.Seq, env.Sequence)
		}

		s.RecvSequence = env.Sequence
		msg = domain.DecryptedMessage{
			SessionID: s.ID,
			From:      s.Peer,
			To:        s.Local,
			Text:      p.Text,
			Sequence:  env.Sequence,
			Timestamp: p.Timestamp,
		}
		return nil
	})
	if err != nil {
		return domain.DecryptedMessage{}, m.reject(ctx, env.SessionID, env.From, err)
	}
	return msg, nil
}

// Result is the outcome of Handle. Reply is set when a frame must be sent back;
// Message is set when a chat message was delivered.
type Result struct {
	Reply   *domain.Frame
	Message *domain.DecryptedMessage
}

// Handle dispatches an inbound frame by kind.
func (m *Machine) Handle(ctx context.Context, f domain.Frame) (Result, error) {
	switch f.Kind {
	case domain.FrameInit:
		reply, err := m.HandleInit(ctx, f)
		if err != nil {
			return Result{}, err
		}
		return Result{Reply: &reply}, nil
	case domain.FrameResp:
		reply, err := m.HandleResponse(ctx, f)
		if err != nil {
			return Result{}, err
		}
		return Result{Reply: &reply}, nil
	case domain.FrameConfirm:
		return Result{}, m.HandleConfirm(ctx, f)
	case domain.FrameChat:
		msg, err := m.Decrypt(ctx, f)
		if err != nil {
			return Result{}, err
		}
		return Result{Message: &msg}, nil
	default:
		return Result{}, m.reject(ctx, "", f.From, fmt.Errorf("%w: frame kind %q", domain.ErrUnknownSession, f.Kind))
	}
}
