package handshake

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marusama/semaphore"

	"securelink/internal/audit"
	"securelink/internal/domain"
	"securelink/internal/metrics"
	"securelink/internal/protocol/freshness"
	"securelink/internal/protocol/kx"
	"securelink/internal/sessiontable"
)

const (
	// DefaultTimeout bounds how long a session may stay mid-handshake.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxPending bounds the number of concurrent pending handshakes.
	DefaultMaxPending = 256

	nonceSize = 16
)

// ErrTooManyPending is returned when the pending-handshake limit is reached.
var ErrTooManyPending = errors.New("handshake: too many pending handshakes")

// Config wires a Machine. Keys, Table and Guard are required.
type Config struct {
	Keys    domain.IdentityKeyStore
	Table   *sessiontable.Table
	Guard   *freshness.Guard
	Suite   string
	Timeout time.Duration

	MaxPending int
	Audit      domain.SecurityLog
	Metrics    *metrics.Metrics
	Logger     *slog.Logger

	// Nonces returns a fresh per-session nonce. Defaults to 16 random bytes,
	// base64 encoded.
	Nonces func() (string, error)
}

// Machine runs the handshake for one local identity.
type Machine struct {
	local   domain.Username
	keys    domain.IdentityKeyStore
	table   *sessiontable.Table
	guard   *freshness.Guard
	suite   kx.Suite
	timeout time.Duration
	audit   domain.SecurityLog
	metrics *metrics.Metrics
	log     *slog.Logger
	nonces  func() (string, error)

	pending  semaphore.Semaphore
	mu       sync.Mutex
	inflight map[*domain.Session]*time.Timer
}

// New returns a Machine.
func New(cfg Config) (*Machine, error) {
	if cfg.Keys == nil || cfg.Table == nil || cfg.Guard == nil {
		return nil, errors.New("handshake: keys, table and guard are required")
	}
	suite, err := kx.Lookup(cfg.Suite)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = DefaultMaxPending
	}
	if cfg.Audit == nil {
		cfg.Audit = audit.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Nonces == nil {
		cfg.Nonces = randomNonce
	}
	return &Machine{
		local:    cfg.Keys.UserID(),
		keys:     cfg.Keys,
		table:    cfg.Table,
		guard:    cfg.Guard,
		suite:    suite,
		timeout:  cfg.Timeout,
		audit:    cfg.Audit,
		metrics:  cfg.Metrics,
		log:      cfg.Logger.With("local", string(cfg.Keys.UserID())),
		nonces:   cfg.Nonces,
		pending:  semaphore.New(cfg.MaxPending),
		inflight: make(map[*domain.Session]*time.Timer),
	}, nil
}

// Local returns the identity this machine acts for.
func (m *Machine) Local() domain.Username { return m.local }

// Table returns the session table.
func (m *Machine) Table() *sessiontable.Table { return m.table }

// Timeout returns how long a session may stay mid-handshake.
func (m *Machine) Timeout() time.Duration { return m.timeout }

// Pending returns the number of sessions mid-handshake.
func (m *Machine) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inflight)
}

func randomNonce() (string, error) {
	b := make([]byte, nonceSize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// track arms the handshake timeout for s. The caller holds a pending slot.
func (m *Machine) track(s *domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inflight[s] = time.AfterFunc(m.timeout, func() { m.expire(s) })
}

// untrack stops the timeout of s and releases its pending slot. It is a no-op
// for sessions that are not pending.
func (m *Machine) untrack(s *domain.Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.inflight[s]
	if !ok {
		return false
	}
	t.Stop()
	delete(m.inflight, s)
	m.pending.Release(1)
	return true
}

// expire aborts s if it is still the pending session registered under its id.
func (m *Machine) expire(s *domain.Session) {
	err := m.table.With(s.ID, func(cur *domain.Session) error {
		if cur != s || !cur.State.Pending() {
			return nil
		}
		m.abortLocked(context.Background(), cur, "handshake timed out")
		return nil
	})
	if err == nil {
		m.publish()
	}
}

// abortLocked moves s to Aborted, zeroes its keys and removes it. The caller
// holds the session lock.
func (m *Machine) abortLocked(ctx context.Context, s *domain.Session, reason string) {
	wasPending := m.untrack(s)
	s.State = domain.StateAborted
	s.Wipe()
	m.table.Remove(s.ID)
	if wasPending {
		m.metrics.Handshake(s.Role, metrics.OutcomeAborted, time.Since(s.CreatedAt))
	}
	m.record(ctx, s.ID, s.Peer, domain.EventKeyExchangeAborted, domain.SeverityWarning, reason)
	m.log.Info("session aborted", "session_id", string(s.ID), "peer", string(s.Peer), "reason", reason)
}

// establishLocked completes the handshake for s.
func (m *Machine) establishLocked(ctx context.Context, s *domain.Session) {
	s.State = domain.StateEstablished
	s.EstablishedAt = m.guard.Now()
	m.untrack(s)
	m.metrics.Handshake(s.Role, metrics.OutcomeEstablished, s.EstablishedAt.Sub(s.CreatedAt))
	m.record(ctx, s.ID, s.Peer, domain.EventKeyExchangeCompleted, domain.SeverityInfo, "session established as "+s.Role.String())
	m.log.Info("session established", "session_id", string(s.ID), "peer", string(s.Peer), "role", s.Role.String())
}

// Sweep aborts pending sessions older than the timeout by the guard's clock.
// It backs up the per-session timers when the clock is not wall time.
func (m *Machine) Sweep(ctx context.Context) int {
	now := m.guard.Now()
	n := 0
	for _, id := range m.table.IDs() {
		_ = m.table.With(id, func(s *domain.Session) error {
			if s.State.Pending() && now.Sub(s.CreatedAt) > m.timeout {
				m.abortLocked(ctx, s, "handshake timed out")
				n++
			}
			return nil
		})
	}
	m.publish()
	return n
}

// Close aborts the session, zeroing its keys. Established sessions are closed
// the same way; no message is sent to the peer.
func (m *Machine) Close(ctx context.Context, id domain.SessionID) error {
	err := m.table.With(id, func(s *domain.Session) error {
		m.abortLocked(ctx, s, "closed locally")
		return nil
	})
	m.publish()
	return err
}

func (m *Machine) publish() {
	if m.metrics == nil {
		return
	}
	m.metrics.SetSessions(m.table.CountByState())
}

func (m *Machine) record(
	ctx context.Context,
	id domain.SessionID,
	peer domain.Username,
	kind domain.EventKind,
	sev domain.Severity,
	reason string,
) {
	m.audit.Record(ctx, domain.SecurityEvent{
		Kind:      kind,
		Severity:  sev,
		SessionID: id,
		Local:     m.local,
		Peer:      peer,
		Reason:    reason,
		Time:      m.guard.Now().UTC(),
	})
}

// reject reports a dropped message and returns the error handed to the caller.
func (m *Machine) reject(ctx context.Context, id domain.SessionID, peer domain.Username, err error) error {
	var re *domain.RejectError
	if !errors.As(err, &re) {
		re = domain.Reject(id, peer, err)
	}
	m.metrics.Rejected(re.Kind)
	m.record(ctx, re.SessionID, re.Peer, re.Kind, severityOf(re.Kind), re.Err.Error())
	m.log.Debug("message rejected",
		"session_id", string(re.SessionID), "peer", string(re.Peer), "kind", string(re.Kind), "err", re.Err)
	return re
}

func severityOf(kind domain.EventKind) domain.Severity {
	switch kind {
	case domain.EventReplayDetected:
		return domain.SeverityCritical
	case domain.EventInvalidSignature, domain.EventDecryptionFailed, domain.EventKeyAgreementFailed:
		return domain.SeverityError
	default:
		return domain.SeverityWarning
	}
}

func mismatch(field string, got, want any) error {
	return fmt.Errorf("%w: %s is %v, expected %v", domain.ErrTranscriptMismatch, field, got, want)
}
