// Package store implements the append-only entry store each NodeCore
// holds: an ordered sequence of (key, value) pairs. Duplicates are
// permitted; readers treat any match as a hit.
package store

import (
	"sync"

	"github.com/kadnet/kadsim/keyint"
)

// Entry is a single stored (key, value) pair.
type Entry struct {
	Key   keyint.KeyInt
	Value []byte
}

// Store is an append-only, thread-safe ordered list of entries owned by
// one NodeCore.
type Store struct {
	mu      sync.RWMutex
	entries []Entry
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Append adds (key, value) to the store. It never fails for the
// in-memory implementation, which has no storage-full condition.
func (s *Store) Append(key keyint.KeyInt, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, Entry{Key: key, Value: cp})
	return nil
}

// Find returns the value of the first entry matching key, if any.
func (s *Store) Find(key keyint.KeyInt) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Len returns the number of stored entries, including duplicates.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entries returns a copy of all stored entries, in insertion order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = Entry{Key: e.Key, Value: append([]byte(nil), e.Value...)}
	}
	return out
}
