package sessiontable

import (
	"sync"
	"sync/atomic"

	"securelink/internal/domain"
)

type entry struct {
	mu      sync.Mutex
	s       *domain.Session
	removed atomic.Bool
}

// Table maps session ids to sessions.
type Table struct {
	mu      sync.Mutex
	entries map[domain.SessionID]*entry
}

// New returns an empty table.
func New() *Table {
	return &Table{entries: make(map[domain.SessionID]*entry)}
}

// Insert adds s. It fails with domain.ErrSessionExists if the id is taken.
func (t *Table) Insert(s *domain.Session) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[s.ID]; ok {
		return domain.ErrSessionExists
	}
	t.entries[s.ID] = &entry{s: s}
	return nil
}

// With runs fn with exclusive access to the session. It returns
// domain.ErrUnknownSession if the session does not exist or is removed while
// waiting for the lock. fn may call Remove for its own session.
func (t *Table) With(id domain.SessionID, fn func(*domain.Session) error) error {
	t.mu.Lock()
	e, ok := t.entries[id]
	t.mu.Unlock()
	if !ok {
		return domain.ErrUnknownSession
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed.Load() {
		return domain.ErrUnknownSession
	}
	return fn(e.s)
}

// Remove drops the session from the table and reports whether it was present.
// The caller is responsible for wiping key material; sessions owned by a
// handshake machine are closed through Machine.Close instead.
func (t *Table) Remove(id domain.SessionID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return false
	}
	e.removed.Store(true)
	delete(t.entries, id)
	return true
}

// Len returns the number of sessions.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// IDs returns the current session ids in no particular order.
func (t *Table) IDs() []domain.SessionID {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.SessionID, 0, len(t.entries))
	for id := range t.entries {
		out = append(out, id)
	}
	return out
}

// Info is a key-free view of a session.
type Info struct {
	ID            domain.SessionID
	Role          domain.Role
	Peer          domain.Username
	State         domain.State
	SendSequence  uint64
	RecvSequence  uint64
	HasKey        bool
	CreatedAt     int64
	EstablishedAt int64
}

// Get returns a key-free view of the session.
func (t *Table) Get(id domain.SessionID) (Info, bool) {
	var info Info
	err := t.With(id, func(s *domain.Session) error {
		info = infoOf(s)
		return nil
	})
	return info, err == nil
}

// Snapshot returns a view of every session.
func (t *Table) Snapshot() []Info {
	ids := t.IDs()
	out := make([]Info, 0, len(ids))
	for _, id := range ids {
		if info, ok := t.Get(id); ok {
			out = append(out, info)
		}
	}
	return out
}

// CountByState tallies sessions per state.
func (t *Table) CountByState() map[domain.State]int {
	out := make(map[domain.State]int)
	for _, info := range t.Snapshot() {
		out[info.State]++
	}
	return out
}

func infoOf(s *domain.Session) Info {
	info := Info{
		ID:           s.ID,
		Role:         s.Role,
		Peer:         s.Peer,
		State:        s.State,
		SendSequence: s.SendSequence,
		RecvSequence: s.RecvSequence,
		HasKey:       s.HasSessionKey(),
		CreatedAt:    s.CreatedAt.Unix(),
	}
	if !s.EstablishedAt.IsZero() {
		info.EstablishedAt = s.EstablishedAt.Unix()
	}
	return info
}
