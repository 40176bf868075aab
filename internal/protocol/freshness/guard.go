package freshness

import (
	"fmt"
	"sync"
	"time"

	lrucache "github.com/cognusion/go-cache-lru"

	"securelink/internal/domain"
)

const (
	// DefaultSkew is the accepted distance between a message timestamp and local time.
	DefaultSkew = 5 * time.Minute

	// DefaultHistory bounds the number of single-use values remembered at
	// once. Once full, MarkUsed refuses new values until old ones expire.
	DefaultHistory = 1 << 16
)

// Config tunes a Guard. Zero values select defaults.
type Config struct {
	Skew    time.Duration
	History int
	Now     func() time.Time
	Store   domain.ReplayStore
}

// Guard is safe for concurrent use.
type Guard struct {
	skew  time.Duration
	now   func() time.Time
	used  *lrucache.Cache
	limit int

	mu      sync.Mutex
	store   domain.ReplayStore
	durable map[string]time.Time
}

// New returns a Guard. When cfg.Store is set, previously persisted values are
// loaded and expired ones dropped.
func New(cfg Config) (*Guard, error) {
	if cfg.Skew <= 0 {
		cfg.Skew = DefaultSkew
	}
	if cfg.History <= 0 {
		cfg.History = DefaultHistory
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	g := &Guard{
		skew:  cfg.Skew,
		now:   cfg.Now,
		used:  lrucache.NewWithLRU(2*cfg.Skew, time.Minute, cfg.History),
		limit: cfg.History,
		store: cfg.Store,
	}
	if g.store == nil {
		return g, nil
	}

	tombs, err := g.store.LoadTombstones()
	if err != nil {
		return nil, fmt.Errorf("load replay tombstones: %w", err)
	}
	g.durable = make(map[string]time.Time, len(tombs))
	now := g.now()
	for k, exp := range tombs {
		if !exp.After(now) {
			continue
		}
		g.durable[k] = exp
		g.used.Set(k, exp, exp.Sub(now))
	}
	return g, nil
}

// Skew returns the configured window.
func (g *Guard) Skew() time.Duration { return g.skew }

// Now returns the guard's notion of current time.
func (g *Guard) Now() time.Time { return g.now() }

// Stamp formats the current time the way CheckTimestamp expects it.
func (g *Guard) Stamp() string { return g.now().UTC().Format(time.RFC3339Nano) }

// CheckTimestamp accepts an RFC 3339 timestamp within the skew window of now.
func (g *Guard) CheckTimestamp(ts string) error {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return fmt.Errorf("%w: malformed timestamp %q", domain.ErrStaleTimestamp, ts)
	}
	d := g.now().Sub(t)
	if d < 0 {
		d = -d
	}
	if d > g.skew {
		return fmt.Errorf("%w: off by %s", domain.ErrStaleTimestamp, d.Round(time.Second))
	}
	return nil
}

// CheckSequence requires incoming to be strictly greater than last. Gaps are
// allowed.
func CheckSequence(last, incoming uint64) error {
	if incoming <= last {
		return fmt.Errorf("%w: sequence %d not after %d", domain.ErrReplayDetected, incoming, last)
	}
	return nil
}

// Seen reports whether any of keys has been marked used.
func (g *Guard) Seen(keys ...string) bool {
	for _, k := range keys {
		if _, ok := g.used.Get(k); ok {
			return true
		}
	}
	return false
}

// MarkUsed records keys as consumed. If any of them was already consumed, or
// the history has no room left for them, the call fails with
// domain.ErrReplayDetected and records nothing.
func (g *Guard) MarkUsed(keys ...string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, k := range keys {
		if _, ok := g.used.Get(k); ok {
			return fmt.Errorf("%w: %s reused", domain.ErrReplayDetected, k)
		}
	}
	// Entries evicted before they expire could be replayed, so a full
	// history refuses instead of making room.
	if g.used.ItemCount()+len(keys) > g.limit {
		g.used.DeleteExpired()
		if g.used.ItemCount()+len(keys) > g.limit {
			return fmt.Errorf("%w: replay history full (%d entries)", domain.ErrReplayDetected, g.limit)
		}
	}
	exp := g.now().Add(2 * g.skew)
	for _, k := range keys {
		if err := g.used.Add(k, exp, lrucache.DefaultExpiration); err != nil {
			return fmt.Errorf("%w: %s reused", domain.ErrReplayDetected, k)
		}
	}
	if g.store == nil {
		return nil
	}

	now := g.now()
	for k, e := range g.durable {
		if !e.After(now) {
			delete(g.durable, k)
		}
	}
	for _, k := range keys {
		g.durable[k] = exp
	}
	snapshot := make(map[string]time.Time, len(g.durable))
	for k, e := range g.durable {
		snapshot[k] = e
	}
	if err := g.store.SaveTombstones(snapshot); err != nil {
		return fmt.Errorf("save replay tombstones: %w", err)
	}
	return nil
}

// SessionKey is the history key under which a session id is remembered.
func SessionKey(id domain.SessionID) string { return "sid:" + string(id) }

// NonceKey is the history key under which a handshake nonce is remembered.
func NonceKey(nonce string) string { return "nonce:" + nonce }
