package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrKirlew/THEEPHONE/internal/gateway/intent"
)

func TestGetOrCreate_NewSession(t *testing.T) {
	s := NewStore(DefaultConfig())
	now := time.Now()

	sess := s.getOrCreateAt("user-1", "sess-1", now)
	if sess.ID != "sess-1" || sess.UserID != "user-1" {
		t.Fatalf("got %+v", sess)
	}
	if !sess.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt: got %v, want %v", sess.CreatedAt, now)
	}
	if len(sess.Messages) != 0 {
		t.Errorf("fresh session should have no messages, got %d", len(sess.Messages))
	}
}

func TestGetOrCreate_GeneratesIDWhenEmpty(t *testing.T) {
	s := NewStore(DefaultConfig())

	a := s.GetOrCreate("user-1", "")
	b := s.GetOrCreate("user-1", "")
	if a.ID == "" || b.ID == "" {
		t.Fatal("expected generated session IDs")
	}
	if a.ID == b.ID {
		t.Error("empty session IDs should create distinct sessions")
	}
}

func TestRecord_AppendsAndTracksClassification(t *testing.T) {
	s := NewStore(DefaultConfig())
	now := time.Now()

	cls := intent.Classification{Kind: intent.KindStructured, Service: "calendar", Keyword: "calendar"}
	s.recordAt("user-1", "sess-1", "user", "what's on my calendar today", cls, now)
	sess := s.recordAt("user-1", "sess-1", "assistant", "You have 2 events.", intent.Classification{}, now.Add(time.Second))

	if len(sess.Messages) != 2 {
		t.Fatalf("messages: got %d, want 2", len(sess.Messages))
	}
	if sess.Messages[0].Role != "user" || sess.Messages[1].Role != "assistant" {
		t.Errorf("roles: got %q, %q", sess.Messages[0].Role, sess.Messages[1].Role)
	}
	// Assistant turns must not clobber the last user classification; the
	// whole record survives, not just the service ID.
	if sess.LastClassification != cls {
		t.Errorf("LastClassification: got %+v, want %+v", sess.LastClassification, cls)
	}
	if !sess.LastSeenAt.Equal(now.Add(time.Second)) {
		t.Errorf("LastSeenAt: got %v", sess.LastSeenAt)
	}
}

func TestRecord_SlidingWindow(t *testing.T) {
	s := NewStore(Config{MaxMessages: 3})
	now := time.Now()

	var sess Session
	for i := 0; i < 5; i++ {
		sess = s.recordAt("user-1", "sess-1", "user", fmt.Sprintf("msg %d", i), intent.Classification{}, now)
	}
	if len(sess.Messages) != 3 {
		t.Fatalf("messages: got %d, want 3", len(sess.Messages))
	}
	if sess.Messages[0].Content != "msg 2" {
		t.Errorf("oldest kept: got %q, want msg 2", sess.Messages[0].Content)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := NewStore(DefaultConfig())
	now := time.Now()

	a := s.recordAt("user-1", "sess-1", "user", "hello", intent.Classification{}, now)
	a.Messages[0].Content = "mutated"

	b := s.getOrCreateAt("user-1", "sess-1", now)
	if b.Messages[0].Content != "hello" {
		t.Error("caller mutation leaked into the store")
	}
}

func TestEvictExpired(t *testing.T) {
	s := NewStore(Config{TTL: time.Minute})
	now := time.Now()

	s.recordAt("user-1", "stale", "user", "hi", intent.Classification{}, now)
	s.recordAt("user-2", "fresh", "user", "hi", intent.Classification{}, now.Add(50*time.Minute))

	evicted := s.EvictExpired(now.Add(51 * time.Minute))
	if evicted != 1 {
		t.Fatalf("evicted: got %d, want 1", evicted)
	}
	if s.Len() != 1 {
		t.Fatalf("len: got %d, want 1", s.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore(DefaultConfig())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", n%8)
			for j := 0; j < 100; j++ {
				s.Record(user, "sess", "user", "ping", intent.Classification{Kind: intent.KindStructured, Service: "calendar"})
				s.GetOrCreate(user, "sess")
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != 8 {
		t.Fatalf("len: got %d, want 8", s.Len())
	}
}
