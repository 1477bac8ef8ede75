package prompt

import (
	"sync"
	"time"
)

// ExpansionState remembers the last expandable question in a session so
// a follow-up "tell me more" can be routed to the right detail template.
type ExpansionState struct {
	LastQuery    string
	QuestionType QuestionType
	StoredAt     time.Time
}

// SessionStore is a session-keyed TTL store for expansion state. It is
// safe for concurrent use; entries expire after the configured TTL and
// expired entries are swept opportunistically on writes.
type SessionStore struct {
	ttl     time.Duration
	entries map[string]ExpansionState
	mu      sync.RWMutex
	now     func() time.Time
}

// DefaultSessionTTL bounds how long a question stays expandable.
const DefaultSessionTTL = 5 * time.Minute

// NewSessionStore creates a store with the given TTL; a non-positive
// TTL falls back to the default.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		ttl:     ttl,
		entries: make(map[string]ExpansionState),
		now:     time.Now,
	}
}

// Get returns the expansion state for a session if one exists and has
// not expired.
func (s *SessionStore) Get(sessionID string) (ExpansionState, bool) {
	if sessionID == "" {
		return ExpansionState{}, false
	}

	s.mu.RLock()
	entry, ok := s.entries[sessionID]
	s.mu.RUnlock()

	if !ok || s.now().Sub(entry.StoredAt) > s.ttl {
		return ExpansionState{}, false
	}
	return entry, true
}

// Put records the last expandable query for a session and sweeps any
// expired entries while it holds the lock.
func (s *SessionStore) Put(sessionID, query string, qt QuestionType) {
	if sessionID == "" {
		return
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.entries {
		if now.Sub(entry.StoredAt) > s.ttl {
			delete(s.entries, id)
		}
	}

	s.entries[sessionID] = ExpansionState{
		LastQuery:    query,
		QuestionType: qt,
		StoredAt:     now,
	}
}

// Clear drops a session's expansion state, used after an expansion has
// been consumed so the same answer is not expanded twice.
func (s *SessionStore) Clear(sessionID string) {
	s.mu.Lock()
	delete(s.entries, sessionID)
	s.mu.Unlock()
}

// Len reports the number of stored sessions, expired or not.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
