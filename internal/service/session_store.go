package service

import (
	"sync"
	"time"

	"github.com/stemsi/exstem-quiz/internal/exam"
)

// sessionEntry owns one student's exam. mu serializes HTTP requests,
// WebSocket ticks and timer callbacks touching the same session.
type sessionEntry struct {
	mu        sync.Mutex
	session   *exam.Session
	expiresAt time.Time
}

// sessionStore isolates sessions by ID. Nothing is shared between entries.
type sessionStore struct {
	mu      sync.RWMutex
	entries map[string]*sessionEntry
}

func newSessionStore() *sessionStore {
	return &sessionStore{entries: make(map[string]*sessionEntry)}
}

func (s *sessionStore) put(id string, e *sessionEntry) {
	s.mu.Lock()
	s.entries[id] = e
	s.mu.Unlock()
}

func (s *sessionStore) get(id string) (*sessionEntry, bool) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	return e, ok
}

func (s *sessionStore) delete(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

func (s *sessionStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// purge drops every entry whose token lifetime ended before now.
func (s *sessionStore) purge(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id, e := range s.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(s.entries, id)
			removed = append(removed, id)
		}
	}
	return removed
}
