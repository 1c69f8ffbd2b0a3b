package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store and Maintainer, suitable for tests and
// single-process embedding. Entries for a hash accumulate; expired ones are
// removed only by DeleteOldest, mirroring how a persistent store behaves.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]Entry),
	}
}

// Put inserts an entry verbatim, preserving its CreatedAt. Intended for
// seeding warm state.
func (s *MemoryStore) Put(e Entry) {
	s.mu.Lock()
	s.entries[e.Hash] = append(s.entries[e.Hash], e)
	s.mu.Unlock()
}

// Find returns entries for hash created strictly after notOlderThan, newest
// first, at most limit.
func (s *MemoryStore) Find(_ context.Context, hash string, notOlderThan time.Time, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, e := range s.entries[hash] {
		if e.CreatedAt.After(notOlderThan) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Create stores data for hash stamped with the current time.
func (s *MemoryStore) Create(_ context.Context, hash string, data any) error {
	s.mu.Lock()
	s.entries[hash] = append(s.entries[hash], Entry{
		Hash:      hash,
		Data:      data,
		CreatedAt: time.Now(),
	})
	s.mu.Unlock()
	return nil
}

// Count returns the number of entries for hash with CreatedAt at or before
// cutoff.
func (s *MemoryStore) Count(_ context.Context, hash string, cutoff time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries[hash] {
		if !e.CreatedAt.After(cutoff) {
			n++
		}
	}
	return n, nil
}

// DeleteOldest removes entries for hash with CreatedAt at or before cutoff,
// keeping the newest keep of them. Idempotent - no error when nothing
// qualifies.
func (s *MemoryStore) DeleteOldest(_ context.Context, hash string, cutoff time.Time, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale, live []Entry
	for _, e := range s.entries[hash] {
		if !e.CreatedAt.After(cutoff) {
			stale = append(stale, e)
		} else {
			live = append(live, e)
		}
	}
	if keep < 0 {
		keep = 0
	}
	if len(stale) > keep {
		sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.After(stale[j].CreatedAt) })
		stale = stale[:keep]
	}
	if len(live)+len(stale) == 0 {
		delete(s.entries, hash)
		return nil
	}
	s.entries[hash] = append(live, stale...)
	return nil
}

// Ensure MemoryStore implements both capabilities
var (
	_ Store      = (*MemoryStore)(nil)
	_ Maintainer = (*MemoryStore)(nil)
)
