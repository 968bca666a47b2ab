package activity

import (
	"context"
	"slices"
	"sort"
	"sync"
)

// DefaultMaxEntries bounds a MemoryStore created by NewMemoryStore.
const DefaultMaxEntries = 10000

// MemoryStore implements Store using in-memory slices. Once maxEntries is
// reached the oldest written entries are evicted.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    []Entry
	seen       map[string]struct{}
	maxEntries int
}

// NewMemoryStore creates a new empty MemoryStore holding DefaultMaxEntries.
func NewMemoryStore() *MemoryStore {
	return NewBoundedMemoryStore(DefaultMaxEntries)
}

// NewBoundedMemoryStore creates a MemoryStore holding at most maxEntries.
// A non-positive maxEntries uses DefaultMaxEntries.
func NewBoundedMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{seen: make(map[string]struct{}), maxEntries: maxEntries}
}

func (s *MemoryStore) WriteEntries(_ context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if _, dup := s.seen[e.EventID]; dup {
			continue
		}
		s.seen[e.EventID] = struct{}{}
		s.entries = append(s.entries, e)
	}
	if over := len(s.entries) - s.maxEntries; over > 0 {
		for _, e := range s.entries[:over] {
			delete(s.seen, e.EventID)
		}
		s.entries = slices.Clone(s.entries[over:])
	}
	return nil
}

func (s *MemoryStore) QueryByWorkspace(_ context.Context, workspaceID string, opts QueryOptions) ([]Entry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Entry
	for _, e := range s.entries {
		if e.WorkspaceID != workspaceID {
			continue
		}
		if opts.Since != nil && e.OccurredAt.Before(*opts.Since) {
			continue
		}
		if len(opts.EventTypes) > 0 && !slices.Contains(opts.EventTypes, e.EventType) {
			continue
		}
		matched = append(matched, e)
	}

	// Sort by occurred_at DESC.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})

	totalCount := len(matched)
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, totalCount, nil
}
