package handshake

import (
	"context"
	"encoding/json"
	"fmt"

	"securelink/internal/crypto"
	"securelink/internal/domain"
	"securelink/internal/protocol/canon"
	"securelink/internal/protocol/channel"
	"securelink/internal/protocol/freshness"
	"securelink/internal/protocol/kx"
	"securelink/internal/util/memzero"
)

// Start creates an initiator session for id and returns the signed KX_INIT
// frame to send to peer. It blocks while the pending-handshake limit is
// reached, until ctx is done.
func (m *Machine) Start(ctx context.Context, id domain.SessionID, peer domain.Username) (domain.Frame, error) {
	if peer == m.local {
		return domain.Frame{}, fmt.Errorf("handshake: cannot open a session with yourself")
	}
	if err := m.pending.Acquire(ctx, 1); err != nil {
		return domain.Frame{}, fmt.Errorf("%w: %v", ErrTooManyPending, err)
	}
	held := true
	defer func() {
		if held {
			m.pending.Release(1)
		}
	}()

	s := domain.NewSession(id, domain.RoleInitiator, m.local, peer, m.guard.Now())
	eph, err := m.suite.Generate()
	if err != nil {
		return domain.Frame{}, err
	}
	nonceA, err := m.nonces()
	if err != nil {
		return domain.Frame{}, err
	}
	s.LocalEphemeral = &eph
	s.NonceLocal = nonceA

	body := domain.HandshakeBody{
		Type:          domain.MessageInit,
		From:          m.local,
		To:            peer,
		SessionID:     id,
		EphemeralPubA: crypto.B64(eph.Public),
		NonceA:        nonceA,
		Seq:           domain.SeqInit,
		Timestamp:     m.guard.Stamp(),
	}
	frame, err := m.signedFrame(domain.FrameInit, body)
	if err != nil {
		s.Wipe()
		return domain.Frame{}, err
	}
	if err := m.guard.MarkUsed(freshness.NonceKey(nonceA)); err != nil {
		s.Wipe()
		return domain.Frame{}, err
	}
	s.State = domain.StateAwaitingResponse
	held = false
	m.track(s)
	if err := m.table.Insert(s); err != nil {
		m.untrack(s)
		s.Wipe()
		return domain.Frame{}, err
	}
	m.publish()

	m.record(ctx, id, peer, domain.EventKeyExchangeInitiated, domain.SeverityInfo, "sent KX_INIT")
	m.log.Debug("handshake started", "session_id", string(id), "peer", string(peer))
	return frame, nil
}

// HandleResponse applies a KX_RESPONSE to a pending initiator session. On
// success the session is Established and the returned frame carries the
// encrypted KX_CONFIRM.
func (m *Machine) HandleResponse(ctx context.Context, f domain.Frame) (domain.Frame, error) {
	sh, err := decodeSigned(f, domain.MessageResponse, domain.SeqResponse)
	if err != nil {
		return domain.Frame{}, m.reject(ctx, sh.Body.SessionID, f.From, err)
	}
	body := sh.Body
	if err := m.guard.CheckTimestamp(body.Timestamp); err != nil {
		return domain.Frame{}, m.reject(ctx, body.SessionID, body.From, err)
	}

	var out domain.Frame
	err = m.table.With(body.SessionID, func(s *domain.Session) error {
		if s.Role != domain.RoleInitiator || s.State != domain.StateAwaitingResponse {
			return fmt.Errorf("%w: KX_RESPONSE for %s session in state %s",
				domain.ErrRoleMismatch, s.Role, s.State)
		}
		switch {
		case body.From != s.Peer:
			return mismatch("from", body.From, s.Peer)
		case body.To != s.Local:
			return mismatch("to", body.To, s.Local)
		case body.NonceA != s.NonceLocal:
			return mismatch("nonceA", body.NonceA, s.NonceLocal)
		case body.NonceB == "":
			return mismatch("nonceB", `""`, "non-empty")
		}
		if err := m.verify(ctx, s.Peer, body, sh.Signature); err != nil {
			return err
		}
		ephB, err := crypto.FromB64(body.EphemeralPubB)
		if err != nil {
			return fmt.Errorf("%w: ephemeralPubB: %v", domain.ErrKeyAgreement, err)
		}

		kctx := kx.ContextFor(s)
		kctx.NonceB = body.NonceB
		key, err := kx.DeriveSessionKey(*s.LocalEphemeral, ephB, kctx)
		if err != nil {
			return err
		}
		defer memzero.Zero(key)
		confirm, err := m.sealConfirm(key, s, body.NonceB)
		if err != nil {
			return err
		}
		if err := m.guard.MarkUsed(freshness.NonceKey(body.NonceB)); err != nil {
			return err
		}

		// Past this point the transition is committed.
		s.NonceRemote = body.NonceB
		if err := s.SetSessionKey(key); err != nil {
			return err
		}
		s.DiscardEphemeral()
		s.SendSequence = domain.SeqConfirm
		s.State = domain.StateConfirming
		out = confirm
		m.establishLocked(ctx, s)
		return nil
	})
	if err != nil {
		return domain.Frame{}, m.reject(ctx, body.SessionID, body.From, err)
	}
	m.publish()
	return out, nil
}

func (m *Machine) sealConfirm(key []byte, s *domain.Session, nonceB string) (domain.Frame, error) {
	ts := m.guard.Stamp()
	pt, err := json.Marshal(domain.ConfirmPayload{
		Type:      domain.MessageConfirm,
		SessionID: s.ID,
		NonceB:    nonceB,
		Seq:       domain.SeqConfirm,
		Timestamp: ts,
	})
	if err != nil {
		return domain.Frame{}, err
	}
	env, err := channel.Seal(key, channel.Header{
		From:      s.Local,
		To:        s.Peer,
		SessionID: s.ID,
		Sequence:  domain.SeqConfirm,
		Timestamp: ts,
	}, pt)
	if err != nil {
		return domain.Frame{}, err
	}
	return envelopeFrame(domain.FrameConfirm, env)
}

// verify checks sig over the canonical body with peer's identity key. Lookup
// failures are reported as invalid signatures.
func (m *Machine) verify(ctx context.Context, peer domain.Username, body domain.HandshakeBody, sig []byte) error {
	msg, err := canon.Encode(body)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSignatureInvalid, err)
	}
	ok, err := m.keys.Verify(ctx, peer, msg, sig)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %v", domain.ErrSignatureInvalid, peer, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s over %s", domain.ErrSignatureInvalid, peer, body.Type)
	}
	return nil
}
