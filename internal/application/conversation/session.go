package conversation

import (
	"context"
	"sync"
	"time"
)

// Session is the ephemeral dialogue state for one user. It lives only as
// long as a flow is in progress and is dropped on cancel or completion.
type Session struct {
	UserID        int64     `json:"user_id"`
	State         State     `json:"state"`
	BotMessageID  int64     `json:"bot_message_id"`
	TaskMessageID int64     `json:"task_message_id"`
	IssueKey      string    `json:"issue_key"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Store persists sessions between updates. Get returns a fresh idle
// session when the user has none, so callers never see nil.
type Store interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, userID int64) error
}

// MemoryStore keeps sessions in process memory. Sessions are lost on
// restart, which matches their ephemeral nature.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*Session)}
}

func (s *MemoryStore) Get(ctx context.Context, userID int64) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[userID]
	s.mu.RUnlock()
	if !ok {
		return &Session{UserID: userID, State: StateIdle}, nil
	}
	copied := *session
	return &copied, nil
}

func (s *MemoryStore) Save(ctx context.Context, session *Session) error {
	copied := *session
	copied.UpdatedAt = time.Now()
	s.mu.Lock()
	s.sessions[session.UserID] = &copied
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID int64) error {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
	return nil
}
