// Package memory provides a process-local session backend for single-instance
// deployments and tests.
package memory

import (
	"context"
	"sync"

	"github.com/gregjones/httpcache"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ericfisherdev/kickstart/internal/domain/port/driven"
)

// DefaultMaxSessions is used when NewSessionStore gets a non-positive limit.
const DefaultMaxSessions = 10000

// Compile-time interface satisfaction check.
var _ driven.SessionBackend = (*SessionStore)(nil)

// SessionStore keeps session values in an httpcache.MemoryCache. Values do
// not expire and are lost on restart. At most maxSessions sessions are kept;
// adding one more drops every value of the least recently used session.
type SessionStore struct {
	mu    sync.Mutex
	cache *httpcache.MemoryCache
	// sessions maps a session ID to the keys it holds in cache.
	sessions *lru.Cache[string, map[string]struct{}]
}

// NewSessionStore creates an empty SessionStore holding up to maxSessions
// sessions.
func NewSessionStore(maxSessions int) *SessionStore {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}

	s := &SessionStore{cache: httpcache.NewMemoryCache()}
	// NewWithEvict only fails for a non-positive size.
	s.sessions, _ = lru.NewWithEvict(maxSessions, s.evict)
	return s
}

// Get returns the value stored for key in the given session.
func (s *SessionStore) Get(_ context.Context, sessionID, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions.Get(sessionID); !ok {
		return "", false, nil
	}
	b, ok := s.cache.Get(cacheKey(sessionID, key))
	if !ok {
		return "", false, nil
	}
	return string(b), true, nil
}

// Set stores or replaces the value for key.
func (s *SessionStore) Set(_ context.Context, sessionID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, ok := s.sessions.Get(sessionID)
	if !ok {
		keys = make(map[string]struct{})
		s.sessions.Add(sessionID, keys)
	}
	keys[key] = struct{}{}
	s.cache.Set(cacheKey(sessionID, key), []byte(value))
	return nil
}

// Delete removes key from the session. A session left without keys stops
// counting towards the limit.
func (s *SessionStore) Delete(_ context.Context, sessionID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(cacheKey(sessionID, key))
	keys, ok := s.sessions.Peek(sessionID)
	if !ok {
		return nil
	}
	delete(keys, key)
	if len(keys) == 0 {
		s.sessions.Remove(sessionID)
	}
	return nil
}

// Len returns the number of sessions currently held.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Len()
}

// evict runs from the lru cache, with s.mu held by the caller of Add or
// Remove.
func (s *SessionStore) evict(sessionID string, keys map[string]struct{}) {
	for key := range keys {
		s.cache.Delete(cacheKey(sessionID, key))
	}
}

// cacheKey joins the session ID and key with a NUL byte, which neither a
// UUID nor a session key can contain.
func cacheKey(sessionID, key string) string {
	return sessionID + "\x00" + key
}
