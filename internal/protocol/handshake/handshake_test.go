package handshake_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"securelink/internal/domain"
	"securelink/internal/metrics"
	"securelink/internal/protocol/channel"
	"securelink/internal/protocol/handshake"
	"securelink/internal/protocol/kx"
)

func TestHandshakeDerivesSameKey(t *testing.T) {
	alice, bob := pair(t)
	establish(t, alice, bob, "s1")

	assert.Equal(t, domain.StateEstablished, alice.state(t, "s1"))
	assert.Equal(t, domain.StateEstablished, bob.state(t, "s1"))

	ka, kb := alice.key(t, "s1"), bob.key(t, "s1")
	assert.Len(t, ka, kx.KeySize)
	assert.Equal(t, ka, kb)

	ai, _ := alice.table.Get("s1")
	bi, _ := bob.table.Get("s1")
	assert.Equal(t, uint64(domain.SeqConfirm), ai.SendSequence)
	assert.Equal(t, uint64(domain.SeqConfirm), bi.RecvSequence)

	for _, n := range []*node{alice, bob} {
		require.NoError(t, n.table.With("s1", func(s *domain.Session) error {
			assert.Nil(t, s.LocalEphemeral.Private, "%s kept its ephemeral key", n.name)
			return nil
		}))
		assert.Equal(t, 0, n.Pending())
		assert.Contains(t, n.events.Kinds(), domain.EventKeyExchangeCompleted)
	}
}

func TestHandshakeWithX448(t *testing.T) {
	dir := newDirectory()
	alice := newNode(t, dir, "alice", withSuite(kx.SuiteX448))
	bob := newNode(t, dir, "bob", withSuite(kx.SuiteX448))
	establish(t, alice, bob, "s1")
	assert.Equal(t, alice.key(t, "s1"), bob.key(t, "s1"))
}

func TestScenarioWrongNonceEcho(t *testing.T) {
	ctx := context.Background()
	dir := newDirectory()
	alice := newNode(t, dir, "alice", withNonces("n1"))
	bob := newNode(t, dir, "bob", withNonces("n2"))

	initF, err := alice.Start(ctx, "s1", "bob")
	require.NoError(t, err)
	var sh domain.SignedHandshake
	require.NoError(t, json.Unmarshal(initF.Payload, &sh))
	assert.Equal(t, "n1", sh.Body.NonceA)

	respF, err := bob.HandleInit(ctx, initF)
	require.NoError(t, err)

	// Bob's response altered to carry n3 no longer verifies.
	forged := rewriteSigned(t, respF, func(sh *domain.SignedHandshake) { sh.Body.NonceB = "n3" })
	_, err = alice.HandleResponse(ctx, forged)
	require.ErrorIs(t, err, domain.ErrSignatureInvalid)
	assert.Equal(t, domain.StateAwaitingResponse, alice.state(t, "s1"))

	confF, err := alice.HandleResponse(ctx, respF)
	require.NoError(t, err)
	k := alice.key(t, "s1")

	// A confirm under the right key that echoes the wrong nonce.
	pt, err := json.Marshal(domain.ConfirmPayload{
		Type: domain.MessageConfirm, SessionID: "s1", NonceB: "wrong", Seq: domain.SeqConfirm,
		Timestamp: alice.clock.Now().Format(time.RFC3339),
	})
	require.NoError(t, err)
	env, err := channel.Seal(k, channel.Header{
		From: "alice", To: "bob", SessionID: "s1", Sequence: domain.SeqConfirm,
		Timestamp: alice.clock.Now().Format(time.RFC3339),
	}, pt)
	require.NoError(t, err)
	raw, err := json.Marshal(env)
	require.NoError(t, err)

	err = bob.HandleConfirm(ctx, domain.Frame{Kind: domain.FrameConfirm, From: "alice", To: "bob", Payload: raw})
	require.ErrorIs(t, err, domain.ErrTranscriptMismatch)
	assert.Equal(t, domain.StateAwaitingConfirm, bob.state(t, "s1"))

	require.NoError(t, bob.HandleConfirm(ctx, confF))
	assert.Equal(t, domain.StateEstablished, bob.state(t, "s1"))
	assert.Equal(t, k, bob.key(t, "s1"))
}

// confirmFrame seals a confirm from alice to bob for s1 under k.
func confirmFrame(t *testing.T, k []byte, nonceB, ts string, envSeq, payloadSeq uint64) domain.Frame {
	t.Helper()
	pt, err := json.Marshal(domain.ConfirmPayload{
		Type: domain.MessageConfirm, SessionID: "s1", NonceB: nonceB, Seq: int(payloadSeq), Timestamp: ts,
	})
	require.NoError(t, err)
	env, err := channel.Seal(k, channel.Header{
		From: "alice", To: "bob", SessionID: "s1", Sequence: envSeq, Timestamp: ts,
	}, pt)
	require.NoError(t, err)
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	return domain.Frame{Kind: domain.FrameConfirm, From: "alice", To: "bob", Payload: raw}
}

func TestConfirmMustCarrySequenceThree(t *testing.T) {
	cases := map[string]struct{ env, payload uint64 }{
		"envelope seq 4": {env: 4, payload: domain.SeqConfirm},
		"payload seq 2":  {env: domain.SeqConfirm, payload: 2},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			dir := newDirectory()
			alice := newNode(t, dir, "alice", withNonces("n1"))
			bob := newNode(t, dir, "bob", withNonces("n2"))

			initF, err := alice.Start(ctx, "s1", "bob")
			require.NoError(t, err)
			respF, err := bob.HandleInit(ctx, initF)
			require.NoError(t, err)
			confF, err := alice.HandleResponse(ctx, respF)
			require.NoError(t, err)

			ts := alice.clock.Now().Format(time.RFC3339)
			bad := confirmFrame(t, alice.key(t, "s1"), "n2", ts, tc.env, tc.payload)
			err = bob.HandleConfirm(ctx, bad)
			require.ErrorIs(t, err, domain.ErrReplayDetected)
			assert.Equal(t, domain.StateAwaitingConfirm, bob.state(t, "s1"))
			assert.Equal(t, 1, bob.Pending())

			require.NoError(t, bob.HandleConfirm(ctx, confF))
			assert.Equal(t, domain.StateEstablished, bob.state(t, "s1"))
		})
	}
}

func TestTamperedInitIsDropped(t *testing.T) {
	ctx := context.Background()
	alice, bob := pair(t)

	initF, err := alice.Start(ctx, "s1", "bob")
	require.NoError(t, err)
	tampered := rewriteSigned(t, initF, func(sh *domain.SignedHandshake) {
		b := []byte(sh.Body.EphemeralPubA)
		if b[0] == 'A' {
			b[0] = 'B'
		} else {
			b[0] = 'A'
		}
		sh.Body.EphemeralPubA = string(b)
	})

	_, err = bob.HandleInit(ctx, tampered)
	require.ErrorIs(t, err, domain.ErrSignatureInvalid)

	var re *domain.RejectError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, domain.EventInvalidSignature, re.Kind)
	assert.Equal(t, domain.SessionID("s1"), re.SessionID)

	assert.Equal(t, 0, bob.table.Len())
	assert.Equal(t, []domain.EventKind{domain.EventInvalidSignature}, bob.events.Kinds())
	assert.Equal(t, 1.0, testutil.ToFloat64(bob.metrics.Rejections.WithLabelValues("INVALID_SIGNATURE")))

	// The untouched original still works.
	_, err = bob.HandleInit(ctx, initF)
	require.NoError(t, err)
}

func TestInitFromUnknownPeer(t *testing.T) {
	ctx := context.Background()
	alice := newNode(t, newDirectory(), "alice")
	bob := newNode(t, newDirectory(), "bob")

	initF, err := alice.Start(ctx, "s1", "bob")
	require.NoError(t, err)
	_, err = bob.HandleInit(ctx, initF)
	require.ErrorIs(t, err, domain.ErrSignatureInvalid)
	assert.Equal(t, 0, bob.table.Len())
}

func TestInitNotAddressedToUs(t *testing.T) {
	ctx := context.Background()
	dir := newDirectory()
	alice := newNode(t, dir, "alice")
	newNode(t, dir, "bob")
	carol := newNode(t, dir, "carol")

	initF, err := alice.Start(ctx, "s1", "bob")
	require.NoError(t, err)
	initF.To = ""
	_, err = carol.HandleInit(ctx, initF)
	require.ErrorIs(t, err, domain.ErrTranscriptMismatch)
	assert.Equal(t, 0, carol.table.Len())
}

func TestRoleIsolation(t *testing.T) {
	ctx := context.Background()
	alice, bob := pair(t)

	initF, err := alice.Start(ctx, "s1", "bob")
	require.NoError(t, err)
	respF, err := bob.HandleInit(ctx, initF)
	require.NoError(t, err)

	t.Run("responder receives RESPONSE", func(t *testing.T) {
		mirrored := rewriteSigned(t, respF, func(sh *domain.SignedHandshake) {
			sh.Body.From, sh.Body.To = "alice", "bob"
		})
		mirrored.From, mirrored.To = "alice", "bob"
		_, err := bob.HandleResponse(ctx, mirrored)
		require.ErrorIs(t, err, domain.ErrRoleMismatch)
		assert.Equal(t, domain.StateAwaitingConfirm, bob.state(t, "s1"))
	})

	t.Run("idle session", func(t *testing.T) {
		require.NoError(t, alice.table.Insert(domain.NewSession("idle", domain.RoleInitiator, "alice", "bob", alice.clock.Now())))
		toIdle := rewriteSigned(t, respF, func(sh *domain.SignedHandshake) { sh.Body.SessionID = "idle" })
		_, err := alice.HandleResponse(ctx, toIdle)
		require.ErrorIs(t, err, domain.ErrRoleMismatch)
		assert.Equal(t, domain.StateIdle, alice.state(t, "idle"))
	})

	t.Run("unknown session", func(t *testing.T) {
		ghost := rewriteSigned(t, respF, func(sh *domain.SignedHandshake) { sh.Body.SessionID = "ghost" })
		_, err := alice.HandleResponse(ctx, ghost)
		require.ErrorIs(t, err, domain.ErrUnknownSession)
	})

	confF, err := alice.HandleResponse(ctx, respF)
	require.NoError(t, err)
	require.NoError(t, bob.HandleConfirm(ctx, confF))

	t.Run("established session", func(t *testing.T) {
		keyBefore := alice.key(t, "s1")
		_, err := alice.HandleResponse(ctx, respF)
		require.ErrorIs(t, err, domain.ErrRoleMismatch)
		assert.Equal(t, domain.StateEstablished, alice.state(t, "s1"))
		assert.Equal(t, keyBefore, alice.key(t, "s1"))
	})

	t.Run("confirm replay", func(t *testing.T) {
		err := bob.HandleConfirm(ctx, confF)
		require.ErrorIs(t, err, domain.ErrRoleMismatch)
		assert.Equal(t, domain.StateEstablished, bob.state(t, "s1"))
	})
}

func TestResponseWithWrongNonceA(t *testing.T) {
	ctx := context.Background()
	alice, bob := pair(t)

	initF, err := alice.Start(ctx, "s1", "bob")
	require.NoError(t, err)
	respF, err := bob.HandleInit(ctx, initF)
	require.NoError(t, err)

	bad := rewriteSigned(t, respF, func(sh *domain.SignedHandshake) { sh.Body.NonceA = "other" })
	_, err = alice.HandleResponse(ctx, bad)
	require.ErrorIs(t, err, domain.ErrTranscriptMismatch)
	assert.Equal(t, domain.StateAwaitingResponse, alice.state(t, "s1"))
}

func TestFreshnessWindow(t *testing.T) {
	cases := []struct {
		name string
		skew time.Duration
		ok   bool
	}{
		{"4m59s ahead", 4*time.Minute + 59*time.Second, true},
		{"4m59s behind", -(4*time.Minute + 59*time.Second), true},
		{"5m1s ahead", 5*time.Minute + time.Second, false},
		{"5m1s behind", -(5*time.Minute + time.Second), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			alice, bob := pair(t)
			bob.clock.Advance(tc.skew)

			initF, err := alice.Start(ctx, "s1", "bob")
			require.NoError(t, err)
			_, err = bob.HandleInit(ctx, initF)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, domain.ErrStaleTimestamp)
			assert.Equal(t, 0, bob.table.Len())
			assert.Equal(t, []domain.EventKind{domain.EventStaleTimestamp}, bob.events.Kinds())
		})
	}
}

func TestStaleChatMessage(t *testing.T) {
	ctx := context.Background()
	alice, bob := pair(t)
	establish(t, alice, bob, "s1")

	f, err := alice.Encrypt(ctx, "s1", "late")
	require.NoError(t, err)
	bob.clock.Advance(5*time.Minute + time.Second)
	_, err = bob.Decrypt(ctx, f)
	require.ErrorIs(t, err, domain.ErrStaleTimestamp)
}

func TestChatReplayAndGaps(t *testing.T) {
	ctx := context.Background()
	alice, bob := pair(t)
	establish(t, alice, bob, "s1")

	m4, err := alice.Encrypt(ctx, "s1", "hello")
	require.NoError(t, err)
	got, err := bob.Decrypt(ctx, m4)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, uint64(4), got.Sequence)
	assert.Equal(t, domain.Username("alice"), got.From)

	_, err = bob.Decrypt(ctx, m4)
	require.ErrorIs(t, err, domain.ErrReplayDetected)
	assert.Contains(t, bob.events.Kinds(), domain.EventReplayDetected)

	m5, err := alice.Encrypt(ctx, "s1", "five")
	require.NoError(t, err)
	m6, err := alice.Encrypt(ctx, "s1", "six")
	require.NoError(t, err)

	got, err = bob.Decrypt(ctx, m6)
	require.NoError(t, err, "gaps are accepted")
	assert.Equal(t, uint64(6), got.Sequence)

	_, err = bob.Decrypt(ctx, m5)
	require.ErrorIs(t, err, domain.ErrReplayDetected)

	// Replies flow the other way on their own counter.
	r, err := bob.Encrypt(ctx, "s1", "hi back")
	require.NoError(t, err)
	got, err = alice.Decrypt(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.Sequence)
	assert.Equal(t, "hi back", got.Text)
}

func TestTamperedChatIsDropped(t *testing.T) {
	ctx := context.Background()
	alice, bob := pair(t)
	establish(t, alice, bob, "s1")

	f, err := alice.Encrypt(ctx, "s1", "hello")
	require.NoError(t, err)

	bad := rewriteEnvelope(t, f, func(e *domain.SecureEnvelope) { e.Ciphertext[0] ^= 0xff })
	_, err = bob.Decrypt(ctx, bad)
	require.ErrorIs(t, err, domain.ErrDecryption)

	// Raising the sequence without the key must not move the counter.
	bumped := rewriteEnvelope(t, f, func(e *domain.SecureEnvelope) { e.Sequence = 100 })
	_, err = bob.Decrypt(ctx, bumped)
	require.ErrorIs(t, err, domain.ErrDecryption)

	info, _ := bob.table.Get("s1")
	assert.Equal(t, uint64(domain.SeqConfirm), info.RecvSequence)

	got, err := bob.Decrypt(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)
}

func TestEncryptRequiresEstablished(t *testing.T) {
	ctx := context.Background()
	alice, _ := pair(t)
	_, err := alice.Start(ctx, "s1", "bob")
	require.NoError(t, err)

	_, err = alice.Encrypt(ctx, "s1", "too early")
	require.ErrorIs(t, err, domain.ErrSessionNotEstablished)
	_, err = alice.Encrypt(ctx, "nope", "x")
	require.ErrorIs(t, err, domain.ErrUnknownSession)
}

func TestReplayedInitAfterClose(t *testing.T) {
	ctx := context.Background()
	alice, bob := pair(t)

	initF, err := alice.Start(ctx, "s1", "bob")
	require.NoError(t, err)
	_, err = bob.HandleInit(ctx, initF)
	require.NoError(t, err)

	_, err = bob.HandleInit(ctx, initF)
	require.ErrorIs(t, err, domain.ErrReplayDetected)

	require.NoError(t, bob.Close(ctx, "s1"))
	assert.Equal(t, 0, bob.table.Len())

	_, err = bob.HandleInit(ctx, initF)
	require.ErrorIs(t, err, domain.ErrReplayDetected)
	assert.Equal(t, 0, bob.table.Len())
}

func TestDuplicateStart(t *testing.T) {
	ctx := context.Background()
	alice, _ := pair(t)
	_, err := alice.Start(ctx, "s1", "bob")
	require.NoError(t, err)
	_, err = alice.Start(ctx, "s1", "bob")
	require.ErrorIs(t, err, domain.ErrSessionExists)
	assert.Equal(t, 1, alice.Pending())

	_, err = alice.Start(ctx, "s2", "alice")
	require.Error(t, err)
}

func TestTimeoutAbortsPending(t *testing.T) {
	ctx := context.Background()
	dir := newDirectory()
	alice := newNode(t, dir, "alice", withTimeout(20*time.Millisecond))
	bob := newNode(t, dir, "bob", withTimeout(20*time.Millisecond))

	initF, err := alice.Start(ctx, "s1", "bob")
	require.NoError(t, err)
	_, err = bob.HandleInit(ctx, initF)
	require.NoError(t, err)

	for _, n := range []*node{alice, bob} {
		require.Eventually(t, func() bool { return n.table.Len() == 0 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, 0, n.Pending())
		assert.Contains(t, n.events.Kinds(), domain.EventKeyExchangeAborted)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(alice.metrics.Handshakes.WithLabelValues("initiator", metrics.OutcomeAborted)))
}

func TestTimeoutReportsConfiguredValue(t *testing.T) {
	dir := newDirectory()
	assert.Equal(t, handshake.DefaultTimeout, newNode(t, dir, "alice").Timeout())
	assert.Equal(t, 5*time.Second, newNode(t, dir, "bob", withTimeout(5*time.Second)).Timeout())
}

func TestEstablishedSessionsDoNotExpire(t *testing.T) {
	dir := newDirectory()
	alice := newNode(t, dir, "alice", withTimeout(20*time.Millisecond))
	bob := newNode(t, dir, "bob", withTimeout(20*time.Millisecond))
	establish(t, alice, bob, "s1")

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, domain.StateEstablished, alice.state(t, "s1"))
	assert.Equal(t, domain.StateEstablished, bob.state(t, "s1"))
}

func TestSweepUsesGuardClock(t *testing.T) {
	ctx := context.Background()
	alice, bob := pair(t)
	establish(t, alice, bob, "done")
	_, err := alice.Start(ctx, "stuck", "bob")
	require.NoError(t, err)

	assert.Equal(t, 0, alice.Sweep(ctx))
	alice.clock.Advance(handshake.DefaultTimeout + time.Second)
	assert.Equal(t, 1, alice.Sweep(ctx))

	_, ok := alice.table.Get("stuck")
	assert.False(t, ok)
	assert.Equal(t, domain.StateEstablished, alice.state(t, "done"))
	assert.Equal(t, 1.0, testutil.ToFloat64(alice.metrics.Sessions.WithLabelValues("established")))
}

func TestCloseWipesEstablished(t *testing.T) {
	ctx := context.Background()
	alice, bob := pair(t)
	establish(t, alice, bob, "s1")

	var held *domain.Session
	require.NoError(t, alice.table.With("s1", func(s *domain.Session) error { held = s; return nil }))
	require.NoError(t, alice.Close(ctx, "s1"))
	assert.Equal(t, domain.StateAborted, held.State)
	assert.False(t, held.HasSessionKey())
	require.ErrorIs(t, alice.Close(ctx, "s1"), domain.ErrUnknownSession)

	f, err := bob.Encrypt(ctx, "s1", "anyone?")
	require.NoError(t, err)
	_, err = alice.Decrypt(ctx, f)
	require.ErrorIs(t, err, domain.ErrUnknownSession)
}

func TestClosePendingReleasesSlot(t *testing.T) {
	ctx := context.Background()
	dir := newDirectory()
	alice := newNode(t, dir, "alice", withMaxPending(1))
	newNode(t, dir, "bob")

	_, err := alice.Start(ctx, "s1", "bob")
	require.NoError(t, err)
	var held *domain.Session
	require.NoError(t, alice.table.With("s1", func(s *domain.Session) error { held = s; return nil }))
	assert.Equal(t, 1, alice.Pending())

	require.NoError(t, alice.Close(ctx, "s1"))
	assert.Equal(t, domain.StateAborted, held.State)
	assert.Nil(t, held.LocalEphemeral.Private)
	assert.Equal(t, 0, alice.Pending())
	assert.Equal(t, 0, alice.table.Len())

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = alice.Start(short, "s2", "bob")
	require.NoError(t, err)
}

func TestPendingLimit(t *testing.T) {
	ctx := context.Background()
	dir := newDirectory()
	alice := newNode(t, dir, "alice", withMaxPending(1))
	bob := newNode(t, dir, "bob", withMaxPending(1))

	i1, err := alice.Start(ctx, "s1", "bob")
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = alice.Start(short, "s2", "bob")
	require.ErrorIs(t, err, handshake.ErrTooManyPending)

	carol := newNode(t, dir, "carol")
	i2, err := carol.Start(ctx, "s2", "bob")
	require.NoError(t, err)

	r1, err := bob.HandleInit(ctx, i1)
	require.NoError(t, err)
	_, err = bob.HandleInit(ctx, i2)
	require.ErrorIs(t, err, handshake.ErrTooManyPending)

	// Completing the first handshake frees the slot on both sides.
	c1, err := alice.HandleResponse(ctx, r1)
	require.NoError(t, err)
	require.NoError(t, bob.HandleConfirm(ctx, c1))
	_, err = alice.Start(ctx, "s3", "bob")
	require.NoError(t, err)
}

func TestConcurrentHandshakes(t *testing.T) {
	alice, bob := pair(t)

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		id := domain.SessionID(fmt.Sprintf("s%d", i))
		g.Go(func() error {
			ctx := context.Background()
			initF, err := alice.Start(ctx, id, "bob")
			if err != nil {
				return err
			}
			respF, err := bob.HandleInit(ctx, initF)
			if err != nil {
				return err
			}
			confF, err := alice.HandleResponse(ctx, respF)
			if err != nil {
				return err
			}
			return bob.HandleConfirm(ctx, confF)
		})
	}
	require.NoError(t, g.Wait())

	counts := bob.table.CountByState()
	assert.Equal(t, 32, counts[domain.StateEstablished])
	assert.Equal(t, 32.0, testutil.ToFloat64(bob.metrics.Handshakes.WithLabelValues("responder", metrics.OutcomeEstablished)))
}

func TestHandleDispatch(t *testing.T) {
	ctx := context.Background()
	alice, bob := pair(t)

	initF, err := alice.Start(ctx, "s1", "bob")
	require.NoError(t, err)
	res, err := bob.Handle(ctx, initF)
	require.NoError(t, err)
	require.NotNil(t, res.Reply)

	res, err = alice.Handle(ctx, *res.Reply)
	require.NoError(t, err)
	require.NotNil(t, res.Reply)
	assert.Equal(t, domain.FrameConfirm, res.Reply.Kind)

	res, err = bob.Handle(ctx, *res.Reply)
	require.NoError(t, err)
	assert.Nil(t, res.Reply)

	chat, err := alice.Encrypt(ctx, "s1", "hi")
	require.NoError(t, err)
	res, err = bob.Handle(ctx, chat)
	require.NoError(t, err)
	require.NotNil(t, res.Message)
	assert.Equal(t, "hi", res.Message.Text)

	_, err = bob.Handle(ctx, domain.Frame{Kind: "bogus"})
	require.Error(t, err)
}
