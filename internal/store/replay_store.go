package store

import (
	"path/filepath"
	"sync"
	"time"

	"securelink/internal/domain"
)

const replayFilename = "replay.json"

// ReplayFileStore persists replay tombstones (single-use handshake values and
// their expiry) as JSON.
type ReplayFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewReplayFileStore returns a ReplayFileStore rooted at dir.
func NewReplayFileStore(dir string) *ReplayFileStore {
	return &ReplayFileStore{dir: dir}
}

// LoadTombstones returns the stored tombstones; a missing file yields none.
func (s *ReplayFileStore) LoadTombstones() (map[string]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[string]time.Time{}
	if _, err := loadJSON(filepath.Join(s.dir, replayFilename), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveTombstones replaces the stored tombstones.
func (s *ReplayFileStore) SaveTombstones(entries map[string]time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return storeJSON(filepath.Join(s.dir, replayFilename), entries)
}

// Compile-time assertion that ReplayFileStore implements domain.ReplayStore.
var _ domain.ReplayStore = (*ReplayFileStore)(nil)
