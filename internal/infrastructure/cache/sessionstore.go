package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mishbel44/ortp-botik/internal/application/conversation"
)

const (
	sessionKeyPrefix = "ortpbot:session:"
	// sessionTTL evicts abandoned dialogues. A user who walked away
	// mid-flow simply starts over from /start.
	sessionTTL = 24 * time.Hour
)

// SessionStore keeps dialogue sessions in Redis so an in-progress flow
// survives a bot restart.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(userID int64) string {
	return sessionKeyPrefix + strconv.FormatInt(userID, 10)
}

func (s *SessionStore) Get(ctx context.Context, userID int64) (*conversation.Session, error) {
	val, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return &conversation.Session{UserID: userID, State: conversation.StateIdle}, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session conversation.Session
	if err := json.Unmarshal(val, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

func (s *SessionStore) Save(ctx context.Context, session *conversation.Session) error {
	session.UpdatedAt = time.Now()
	val, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.UserID), val, sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
