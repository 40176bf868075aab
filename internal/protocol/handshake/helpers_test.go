package handshake_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"securelink/internal/audit"
	"securelink/internal/domain"
	"securelink/internal/metrics"
	"securelink/internal/protocol/freshness"
	"securelink/internal/protocol/handshake"
	"securelink/internal/sessiontable"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// directory maps usernames to identity keys, standing in for the relay.
type directory struct {
	mu   sync.Mutex
	pubs map[domain.Username]ed25519.PublicKey
}

func newDirectory() *directory {
	return &directory{pubs: make(map[domain.Username]ed25519.PublicKey)}
}

type keys struct {
	user domain.Username
	priv ed25519.PrivateKey
	dir  *directory
}

func (k *keys) UserID() domain.Username { return k.user }

func (k *keys) Sign(msg []byte) []byte { return ed25519.Sign(k.priv, msg) }

func (k *keys) Verify(_ context.Context, peer domain.Username, msg, sig []byte) (bool, error) {
	k.dir.mu.Lock()
	pub, ok := k.dir.pubs[peer]
	k.dir.mu.Unlock()
	if !ok {
		return false, domain.ErrNotFound
	}
	return ed25519.Verify(pub, msg, sig), nil
}

type node struct {
	*handshake.Machine
	name    domain.Username
	table   *sessiontable.Table
	clock   *clock
	events  *audit.Recorder
	metrics *metrics.Metrics
}

type option func(*handshake.Config)

func withNonces(nonces ...string) option {
	return func(c *handshake.Config) {
		var mu sync.Mutex
		c.Nonces = func() (string, error) {
			mu.Lock()
			defer mu.Unlock()
			n := nonces[0]
			nonces = nonces[1:]
			return n, nil
		}
	}
}

func withSuite(s string) option { return func(c *handshake.Config) { c.Suite = s } }

func withTimeout(d time.Duration) option { return func(c *handshake.Config) { c.Timeout = d } }

func withMaxPending(n int) option { return func(c *handshake.Config) { c.MaxPending = n } }

func newNode(t *testing.T, dir *directory, name domain.Username, opts ...option) *node {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	dir.mu.Lock()
	dir.pubs[name] = pub
	dir.mu.Unlock()

	clk := newClock()
	guard, err := freshness.New(freshness.Config{Now: clk.Now})
	require.NoError(t, err)

	n := &node{
		name:    name,
		table:   sessiontable.New(),
		clock:   clk,
		events:  &audit.Recorder{},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	cfg := handshake.Config{
		Keys:    &keys{user: name, priv: priv, dir: dir},
		Table:   n.table,
		Guard:   guard,
		Audit:   n.events,
		Metrics: n.metrics,
	}
	for _, o := range opts {
		o(&cfg)
	}
	n.Machine, err = handshake.New(cfg)
	require.NoError(t, err)
	return n
}

func pair(t *testing.T) (alice, bob *node) {
	t.Helper()
	dir := newDirectory()
	return newNode(t, dir, "alice"), newNode(t, dir, "bob")
}

// establish runs the full exchange between a and b for id.
func establish(t *testing.T, a, b *node, id domain.SessionID) {
	t.Helper()
	ctx := context.Background()
	initF, err := a.Start(ctx, id, b.name)
	require.NoError(t, err)
	respF, err := b.HandleInit(ctx, initF)
	require.NoError(t, err)
	confF, err := a.HandleResponse(ctx, respF)
	require.NoError(t, err)
	require.NoError(t, b.HandleConfirm(ctx, confF))
}

func (n *node) state(t *testing.T, id domain.SessionID) domain.State {
	t.Helper()
	info, ok := n.table.Get(id)
	require.True(t, ok, "%s has no session %s", n.name, id)
	return info.State
}

func (n *node) key(t *testing.T, id domain.SessionID) []byte {
	t.Helper()
	var k []byte
	require.NoError(t, n.table.With(id, func(s *domain.Session) error {
		k = append([]byte(nil), s.SessionKey()...)
		return nil
	}))
	return k
}

// rewriteSigned decodes a handshake frame, applies fn to it and re-encodes it
// without re-signing.
func rewriteSigned(t *testing.T, f domain.Frame, fn func(*domain.SignedHandshake)) domain.Frame {
	t.Helper()
	var sh domain.SignedHandshake
	require.NoError(t, json.Unmarshal(f.Payload, &sh))
	fn(&sh)
	raw, err := json.Marshal(sh)
	require.NoError(t, err)
	f.Payload = raw
	return f
}

func rewriteEnvelope(t *testing.T, f domain.Frame, fn func(*domain.SecureEnvelope)) domain.Frame {
	t.Helper()
	var env domain.SecureEnvelope
	require.NoError(t, json.Unmarshal(f.Payload, &env))
	fn(&env)
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	f.Payload = raw
	return f
}
