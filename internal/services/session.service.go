package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/smart-wakala/pkg/redis"
)

var ErrSessionNotFound = errors.New("session not found or expired")

const sessionKeyPrefix = "session:"

type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionService struct {
	redis redis.RedisAdapter
	ttl   time.Duration
}

func NewSessionService(adapter redis.RedisAdapter, ttl time.Duration) *SessionService {
	return &SessionService{redis: adapter, ttl: ttl}
}

func (s *SessionService) TTL() time.Duration { return s.ttl }

func (s *SessionService) Create(ctx context.Context, userID int64, username string) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, sessionKeyPrefix+sess.Token, raw, s.ttl); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

// Get loads the session for token and extends its lifetime by the ttl.
func (s *SessionService) Get(ctx context.Context, token string) (*Session, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrSessionNotFound
	}
	raw, err := s.redis.Get(ctx, sessionKeyPrefix+token)
	if err != nil {
		if redis.IsNil(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	// sessions slide: every successful read restarts the ttl
	ok, err := s.redis.Expire(ctx, sessionKeyPrefix+token, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.ExpiresAt = time.Now().UTC().Add(s.ttl)
	return &sess, nil
}

func (s *SessionService) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.redis.Del(ctx, sessionKeyPrefix+token)
}
