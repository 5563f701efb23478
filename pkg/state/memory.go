// Package state provides a process-local keyed store with lazy expiry.
package state

import (
	"sync"
	"time"
)

// DefaultTTL is the lifetime of entries in a store created with NewDefaultMemoryStore.
const DefaultTTL = 600 * time.Second

type entry struct {
	value     any
	expiresAt time.Time // zero when the entry never expires
}

// MemoryStore maps keys to values with an optional time-to-live. Expired
// entries are evicted when read, never swept in the background.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]entry
	now   func() time.Time
}

// NewMemoryStore creates a store whose entries live for ttl. A ttl of zero
// or less disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:   ttl,
		items: make(map[string]entry),
		now:   time.Now,
	}
}

// NewDefaultMemoryStore creates a store with DefaultTTL.
func NewDefaultMemoryStore() *MemoryStore {
	return NewMemoryStore(DefaultTTL)
}

// Get returns the value for key. An entry past its expiry is removed and
// reported as absent.
func (s *MemoryStore) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && e.expiresAt.Before(s.now()) {
		delete(s.items, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key, restarting its time-to-live.
func (s *MemoryStore) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry{value: value}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.items[key] = e
}

// Delete removes key and returns the value it held, if any.
func (s *MemoryStore) Delete(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	delete(s.items, key)
	return e.value, ok
}

// Clear removes every entry.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.items)
}

// Len returns the number of stored entries, including expired ones not yet read.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
