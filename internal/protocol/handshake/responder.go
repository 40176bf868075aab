package handshake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"securelink/internal/crypto"
	"securelink/internal/domain"
	"securelink/internal/protocol/channel"
	"securelink/internal/protocol/freshness"
	"securelink/internal/protocol/kx"
	"securelink/internal/util/memzero"
)

// HandleInit verifies a KX_INIT and creates a responder session waiting for
// the peer's confirmation. The returned frame carries the signed KX_RESPONSE.
func (m *Machine) HandleInit(ctx context.Context, f domain.Frame) (domain.Frame, error) {
	sh, err := decodeSigned(f, domain.MessageInit, domain.SeqInit)
	if err != nil {
		return domain.Frame{}, m.reject(ctx, sh.Body.SessionID, f.From, err)
	}
	body := sh.Body
	out, err := m.respond(ctx, body, sh.Signature)
	if err != nil {
		return domain.Frame{}, m.reject(ctx, body.SessionID, body.From, err)
	}
	m.publish()
	return out, nil
}

func (m *Machine) respond(ctx context.Context, body domain.HandshakeBody, sig []byte) (domain.Frame, error) {
	switch {
	case body.To != m.local:
		return domain.Frame{}, mismatch("to", body.To, m.local)
	case body.From == m.local || body.From == "":
		return domain.Frame{}, mismatch("from", body.From, "a remote peer")
	case body.NonceA == "":
		return domain.Frame{}, mismatch("nonceA", `""`, "non-empty")
	}
	if err := m.guard.CheckTimestamp(body.Timestamp); err != nil {
		return domain.Frame{}, err
	}
	if err := m.verify(ctx, body.From, body, sig); err != nil {
		return domain.Frame{}, err
	}
	ephA, err := crypto.FromB64(body.EphemeralPubA)
	if err != nil {
		return domain.Frame{}, fmt.Errorf("%w: ephemeralPubA: %v", domain.ErrKeyAgreement, err)
	}
	if m.guard.Seen(freshness.SessionKey(body.SessionID), freshness.NonceKey(body.NonceA)) {
		return domain.Frame{}, fmt.Errorf("%w: KX_INIT for %s already answered", domain.ErrReplayDetected, body.SessionID)
	}
	if !m.pending.TryAcquire(1) {
		return domain.Frame{}, ErrTooManyPending
	}
	held := true
	defer func() {
		if held {
			m.pending.Release(1)
		}
	}()

	s := domain.NewSession(body.SessionID, domain.RoleResponder, m.local, body.From, m.guard.Now())
	eph, err := m.suite.Generate()
	if err != nil {
		return domain.Frame{}, err
	}
	s.LocalEphemeral = &eph

	nonceB, err := m.nonces()
	if err != nil {
		s.DiscardEphemeral()
		return domain.Frame{}, err
	}
	s.NonceLocal = nonceB
	s.NonceRemote = body.NonceA

	key, err := kx.DeriveSessionKey(eph, ephA, kx.ContextFor(s))
	s.DiscardEphemeral()
	if err != nil {
		return domain.Frame{}, err
	}
	err = s.SetSessionKey(key)
	memzero.Zero(key)
	if err != nil {
		return domain.Frame{}, err
	}

	resp := domain.HandshakeBody{
		Type:          domain.MessageResponse,
		From:          m.local,
		To:            body.From,
		SessionID:     body.SessionID,
		EphemeralPubB: crypto.B64(eph.Public),
		NonceA:        body.NonceA,
		NonceB:        nonceB,
		Seq:           domain.SeqResponse,
		Timestamp:     m.guard.Stamp(),
	}
	frame, err := m.signedFrame(domain.FrameResp, resp)
	if err != nil {
		s.Wipe()
		return domain.Frame{}, err
	}

	if err := m.guard.MarkUsed(
		freshness.SessionKey(body.SessionID),
		freshness.NonceKey(body.NonceA),
		freshness.NonceKey(nonceB),
	); err != nil {
		s.Wipe()
		return domain.Frame{}, err
	}
	s.State = domain.StateAwaitingConfirm
	held = false
	m.track(s)
	if err := m.table.Insert(s); err != nil {
		m.untrack(s)
		s.Wipe()
		if errors.Is(err, domain.ErrSessionExists) {
			return domain.Frame{}, fmt.Errorf("%w: session %s already held locally", domain.ErrRoleMismatch, s.ID)
		}
		return domain.Frame{}, err
	}

	m.record(ctx, s.ID, s.Peer, domain.EventKeyExchangeInitiated, domain.SeverityInfo, "accepted KX_INIT, sent KX_RESPONSE")
	m.log.Debug("handshake answered", "session_id", string(s.ID), "peer", string(s.Peer))
	return frame, nil
}

// HandleConfirm decrypts a KX_CONFIRM and, if it proves possession of the
// session key and echoes this side's nonce, establishes the session.
func (m *Machine) HandleConfirm(ctx context.Context, f domain.Frame) error {
	env, err := decodeEnvelope(f)
	if err != nil {
		return m.reject(ctx, env.SessionID, f.From, err)
	}
	if err := m.guard.CheckTimestamp(env.Timestamp); err != nil {
		return m.reject(ctx, env.SessionID, env.From, err)
	}

	err = m.table.With(env.SessionID, func(s *domain.Session) error {
		if s.Role != domain.RoleResponder || s.State != domain.StateAwaitingConfirm {
			return fmt.Errorf("%w: KX_CONFIRM for %s session in state %s",
				domain.ErrRoleMismatch, s.Role, s.State)
		}
		switch {
		case env.From != s.Peer:
			return mismatch("from", env.From, s.Peer)
		case env.To != s.Local:
			return mismatch("to", env.To, s.Local)
		case env.Sequence != domain.SeqConfirm:
			return fmt.Errorf("%w: KX_CONFIRM carries seq %d", domain.ErrReplayDetected, env.Sequence)
		}
		if err := freshness.CheckSequence(s.RecvSequence, env.Sequence); err != nil {
			return err
		}

		pt, err := channel.Open(s.SessionKey(), env)
		if err != nil {
			return err
		}
		var c domain.ConfirmPayload
		if err := json.Unmarshal(pt, &c); err != nil {
			return fmt.Errorf("%w: malformed confirm: %v", domain.ErrDecryption, err)
		}
		switch {
		case c.Type != domain.MessageConfirm:
			return mismatch("type", c.Type, domain.MessageConfirm)
		case c.SessionID != s.ID:
			return mismatch("sessionId", c.SessionID, s.ID)
		case c.NonceB != s.NonceLocal:
			return mismatch("nonceB", c.NonceB, "the local nonce")
		case c.Seq != domain.SeqConfirm:
			return fmt.Errorf("%w: confirm payload carries seq %d", domain.ErrReplayDetected, c.Seq)
		}
		if err := m.guard.CheckTimestamp(c.Timestamp); err != nil {
			return err
		}

		s.RecvSequence = env.Sequence
		m.establishLocked(ctx, s)
		return nil
	})
	if err != nil {
		return m.reject(ctx, env.SessionID, env.From, err)
	}
	m.publish()
	return nil
}
