// Package cache provides the in-memory store that decides whether the refresh
// pipeline must run again.
package cache

import (
	"sync"
	"time"
)

// Keys of the three aggregates written by every successful refresh.
const (
	KeyJSONData  = "jsonData"
	KeyCompanies = "companies"
	KeyProjects  = "projects"
)

// DefaultMaxAge is the default freshness window.
const DefaultMaxAge = 3 * 24 * time.Hour

// RequiredKeys lists the keys that must all be populated for the store to be fresh.
var RequiredKeys = []string{KeyJSONData, KeyCompanies, KeyProjects}

// Store is a key/value store with a single last-write timestamp shared by all keys.
// It is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	values      map[string]any
	lastUpdated time.Time
	now         func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		values: make(map[string]any),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastUpdated = s.now()
	return s
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

// Set stores value under key and moves the shared timestamp to now,
// marking every key as written at the same moment.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.lastUpdated = s.now()
}

// SetAll stores several values under one lock so readers never observe a
// partially repopulated store.
func (s *Store) SetAll(values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range values {
		s.values[key] = value
	}
	s.lastUpdated = s.now()
}

// LastUpdated returns the shared last-write timestamp.
func (s *Store) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// IsFresh reports whether every required key is populated and the last write
// is no older than maxAge. An age of exactly maxAge is fresh.
func (s *Store) IsFresh(maxAge time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, key := range RequiredKeys {
		if value, ok := s.values[key]; !ok || value == nil {
			return false
		}
	}
	return s.now().Sub(s.lastUpdated) <= maxAge
}

// Reset drops every value.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]any)
	s.lastUpdated = s.now()
}
