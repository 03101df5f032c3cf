package cache

import (
	"context"
	"sync"
	"time"
)

// Store bounds and validity windows
const (
	NodeCacheSize = 50
	NodeCacheTTL  = 30 * time.Second
	DerivedSize   = 20
	DerivedTTL    = 5 * time.Minute
	SweepInterval = 2 * time.Minute
)

// entry is one cached value with its write timestamp.
type entry struct {
	value     any
	timestamp time.Time
}

// Store is a bounded, time-boxed key/value store. Reads past the validity
// window miss; writes past the size bound evict the oldest timestamps.
type Store struct {
	mu         sync.Mutex
	entries    map[string]*entry
	maxEntries int
	validity   time.Duration
	now        func() time.Time
}

// NewStore creates a store with the given size bound and validity window.
func NewStore(maxEntries int, validity time.Duration) *Store {
	return &Store{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
		validity:   validity,
		now:        time.Now,
	}
}

// SetClock replaces the store's time source. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get returns the cached value for key while it is still within the
// validity window.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(e.timestamp) >= s.validity {
		delete(s.entries, key)
		return nil, false
	}
	return e.value, true
}

// Put writes a value under key, stamping it with the current time. If the
// write pushes the store over its bound, oldest-timestamp entries are
// evicted immediately so the bound holds between sweeps too.
func (s *Store) Put(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &entry{value: value, timestamp: s.now()}
	s.evictOverBound()
}

// Delete removes a single entry.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Purge discards every entry. Used wholesale on navigation.
func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
}

// Len returns the current entry count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep applies the two-pass eviction policy: drop stale entries, then
// enforce the size bound by oldest timestamp.
func (s *Store) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if now.Sub(e.timestamp) >= s.validity {
			delete(s.entries, k)
		}
	}
	s.evictOverBound()
}

// evictOverBound removes entries sharing the globally oldest timestamp,
// repeatedly, until the store is at or under its bound. Caller holds the
// lock.
func (s *Store) evictOverBound() {
	for len(s.entries) > s.maxEntries {
		var oldest time.Time
		first := true
		for _, e := range s.entries {
			if first || e.timestamp.Before(oldest) {
				oldest = e.timestamp
				first = false
			}
		}
		// Collect ties in one pass, then delete. Entries written in the
		// same tick go together.
		var doomed []string
		for k, e := range s.entries {
			if e.timestamp.Equal(oldest) {
				doomed = append(doomed, k)
			}
		}
		for _, k := range doomed {
			delete(s.entries, k)
		}
	}
}

// Manager owns the engine's two stores and runs the periodic sweep.
type Manager struct {
	Nodes   *Store // node/candidate cache: leaf lists, candidate lists
	Derived *Store // derived results: resolved anchors, expensive lookups

	interval time.Duration
}

// NewManager creates a manager with the engine's standard bounds.
func NewManager() *Manager {
	return &Manager{
		Nodes:    NewStore(NodeCacheSize, NodeCacheTTL),
		Derived:  NewStore(DerivedSize, DerivedTTL),
		interval: SweepInterval,
	}
}

// Sweep runs one eviction pass over both stores. Exposed so cooperative
// single-threaded hosts can drive eviction themselves.
func (m *Manager) Sweep() {
	m.Nodes.Sweep()
	m.Derived.Sweep()
}

// Reset discards both stores' contents wholesale. Called on navigation,
// when cached leaves reference a tree that no longer exists.
func (m *Manager) Reset() {
	m.Nodes.Purge()
	m.Derived.Purge()
}

// StartSweeper runs the periodic sweep until ctx is cancelled.
func (m *Manager) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep()
			}
		}
	}()
}
