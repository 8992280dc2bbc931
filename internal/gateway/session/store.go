// Package session holds per-user conversation state for the lifetime of the
// process. Nothing here is persisted: a restart clears all sessions, which is
// acceptable because sessions carry only routing context (recent messages and
// the last classified intent), never credentials or user data of record.
package session

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrKirlew/THEEPHONE/internal/gateway/intent"
)

// shardCount is the number of independently locked map shards. Sessions are
// spread across shards by key hash so concurrent messages from different users
// never contend on one mutex.
const shardCount = 16

// Message is one turn of the conversation kept for context.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the routing state for one (userID, sessionID) pair.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`

	// LastClassification is the classification of the most recent user turn,
	// kept on the session for observability. Assistant turns never touch it.
	LastClassification intent.Classification `json:"last_classification"`

	// Messages is a sliding window of recent turns, oldest first.
	Messages []Message `json:"messages"`
}

// Config bounds what a session may accumulate.
type Config struct {
	// MaxMessages caps the per-session message window. When exceeded, the
	// oldest messages are dropped. Default: 20.
	MaxMessages int

	// TTL is the inactivity threshold after which EvictExpired removes a
	// session. Default: 1 hour.
	TTL time.Duration
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxMessages: 20,
		TTL:         time.Hour,
	}
}

// Store is an in-memory, shard-locked session table. It is safe for
// concurrent use.
type Store struct {
	config Config
	shards [shardCount]shard
}

type shard struct {
	mu       sync.Mutex
	sessions map[string]*Session // key: userID + ":" + sessionID
}

// NewStore creates a Store with the given configuration.
func NewStore(cfg Config) *Store {
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = DefaultConfig().MaxMessages
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	s := &Store{config: cfg}
	for i := range s.shards {
		s.shards[i].sessions = make(map[string]*Session)
	}
	return s
}

// GetOrCreate returns a snapshot of the session for the given user and
// session ID, creating it if absent. An empty sessionID gets a fresh
// generated ID; the caller should echo the returned Session.ID back to the
// client so follow-up messages land in the same session.
func (s *Store) GetOrCreate(userID, sessionID string) Session {
	return s.getOrCreateAt(userID, sessionID, time.Now())
}

// getOrCreateAt is the time-injectable core of GetOrCreate (for testing).
func (s *Store) getOrCreateAt(userID, sessionID string, now time.Time) Session {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	sh := s.shardFor(userID, sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	key := storeKey(userID, sessionID)
	sess := sh.sessions[key]
	if sess == nil {
		sess = &Session{
			ID:         sessionID,
			UserID:     userID,
			CreatedAt:  now,
			LastSeenAt: now,
		}
		sh.sessions[key] = sess
	}
	return snapshot(sess)
}

// Record appends one conversation turn to the session, creating the session
// if absent, and returns a snapshot of the updated state. cls is the turn's
// classification; pass the zero value for assistant turns, which never carry
// one.
func (s *Store) Record(userID, sessionID, role, content string, cls intent.Classification) Session {
	return s.recordAt(userID, sessionID, role, content, cls, time.Now())
}

func (s *Store) recordAt(userID, sessionID, role, content string, cls intent.Classification, now time.Time) Session {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	sh := s.shardFor(userID, sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	key := storeKey(userID, sessionID)
	sess := sh.sessions[key]
	if sess == nil {
		sess = &Session{
			ID:        sessionID,
			UserID:    userID,
			CreatedAt: now,
		}
		sh.sessions[key] = sess
	}

	sess.Messages = append(sess.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	if len(sess.Messages) > s.config.MaxMessages {
		excess := len(sess.Messages) - s.config.MaxMessages
		sess.Messages = sess.Messages[excess:]
	}
	if role == "user" {
		sess.LastClassification = cls
	}
	sess.LastSeenAt = now

	return snapshot(sess)
}

// EvictExpired removes sessions idle longer than the TTL relative to now and
// returns the number removed.
func (s *Store) EvictExpired(now time.Time) int {
	var evicted int
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for key, sess := range sh.sessions {
			if now.Sub(sess.LastSeenAt) > s.config.TTL {
				delete(sh.sessions, key)
				evicted++
			}
		}
		sh.mu.Unlock()
	}
	return evicted
}

// Len reports the number of live sessions across all shards.
func (s *Store) Len() int {
	var n int
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.sessions)
		sh.mu.Unlock()
	}
	return n
}

func (s *Store) shardFor(userID, sessionID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(storeKey(userID, sessionID)))
	return &s.shards[h.Sum32()%shardCount]
}

// snapshot returns a deep copy so callers never alias shard-owned state.
func snapshot(sess *Session) Session {
	cp := *sess
	cp.Messages = make([]Message, len(sess.Messages))
	copy(cp.Messages, sess.Messages)
	return cp
}

func storeKey(userID, sessionID string) string {
	return userID + ":" + sessionID
}
