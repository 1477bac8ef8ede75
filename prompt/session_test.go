package prompt

import (
	"testing"
	"time"
)

func TestSessionStorePutGet(t *testing.T) {
	s := NewSessionStore(time.Minute)

	s.Put("sess-1", "what is a migraine", QuestionEducational)

	state, ok := s.Get("sess-1")
	if !ok {
		t.Fatal("Get() should find the stored session")
	}
	if state.LastQuery != "what is a migraine" {
		t.Errorf("LastQuery = %q", state.LastQuery)
	}
	if state.QuestionType != QuestionEducational {
		t.Errorf("QuestionType = %q", state.QuestionType)
	}
}

func TestSessionStoreEmptySessionID(t *testing.T) {
	s := NewSessionStore(time.Minute)

	s.Put("", "query", QuestionGeneral)
	if s.Len() != 0 {
		t.Error("empty session id must not be stored")
	}
	if _, ok := s.Get(""); ok {
		t.Error("empty session id must not be found")
	}
}

func TestSessionStoreTTLExpiry(t *testing.T) {
	s := NewSessionStore(5 * time.Minute)

	current := time.Now()
	s.now = func() time.Time { return current }

	s.Put("sess-1", "query", QuestionSymptom)

	// Just inside the TTL.
	current = current.Add(4 * time.Minute)
	if _, ok := s.Get("sess-1"); !ok {
		t.Error("entry should still be live inside the TTL")
	}

	// Past the TTL.
	current = current.Add(2 * time.Minute)
	if _, ok := s.Get("sess-1"); ok {
		t.Error("entry should have expired")
	}
}

func TestSessionStoreDefaultTTL(t *testing.T) {
	s := NewSessionStore(0)
	if s.ttl != DefaultSessionTTL {
		t.Errorf("ttl = %v, want default %v", s.ttl, DefaultSessionTTL)
	}

	s = NewSessionStore(-time.Second)
	if s.ttl != DefaultSessionTTL {
		t.Errorf("negative ttl should fall back to default, got %v", s.ttl)
	}
}

func TestSessionStoreClear(t *testing.T) {
	s := NewSessionStore(time.Minute)
	s.Put("sess-1", "query", QuestionGeneral)

	s.Clear("sess-1")
	if _, ok := s.Get("sess-1"); ok {
		t.Error("cleared session should be gone")
	}
}

func TestSessionStorePutSweepsExpired(t *testing.T) {
	s := NewSessionStore(time.Minute)

	current := time.Now()
	s.now = func() time.Time { return current }

	s.Put("old-1", "a", QuestionGeneral)
	s.Put("old-2", "b", QuestionGeneral)

	current = current.Add(2 * time.Minute)
	s.Put("fresh", "c", QuestionGeneral)

	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after expired entries were swept", s.Len())
	}
}

func TestSessionStoreOverwrite(t *testing.T) {
	s := NewSessionStore(time.Minute)
	s.Put("sess-1", "first", QuestionGeneral)
	s.Put("sess-1", "second", QuestionMedication)

	state, ok := s.Get("sess-1")
	if !ok {
		t.Fatal("session missing")
	}
	if state.LastQuery != "second" || state.QuestionType != QuestionMedication {
		t.Errorf("state = %+v, want the newest entry", state)
	}
}
