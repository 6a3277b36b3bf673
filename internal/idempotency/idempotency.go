package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nimasrn/smart-wakala/pkg/logger"
	"github.com/nimasrn/smart-wakala/pkg/redis"
)

var (
	ErrInProgress = errors.New("request with this idempotency key is in progress")
	ErrEmptyKey   = errors.New("idempotency key is empty")
	ErrKeyTooLong = fmt.Errorf("idempotency key exceeds %d characters", MaxKeyLength)
)

const MaxKeyLength = 255

type Config struct {
	// LockTTL bounds how long a crashed request can block its key.
	LockTTL     time.Duration
	ResponseTTL time.Duration

	LockKeyPrefix     string
	ResponseKeyPrefix string
}

func DefaultConfig() Config {
	return Config{
		LockTTL:           30 * time.Second,
		ResponseTTL:       24 * time.Hour,
		LockKeyPrefix:     "idem:lock:",
		ResponseKeyPrefix: "idem:resp:",
	}
}

// Response is what gets replayed for a repeated key.
type Response struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type Store struct {
	redis  redis.RedisAdapter
	config Config
}

func NewStore(adapter redis.RedisAdapter, config Config) *Store {
	return &Store{redis: adapter, config: config}
}

// Begin claims key for the caller. It returns the stored response when the key
// has already completed, ErrInProgress when another request holds the lock,
// and (nil, nil) when the caller now owns the key and must call Complete or
// Release.
func (s *Store) Begin(ctx context.Context, key string) (*Response, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	if len(key) > MaxKeyLength {
		return nil, ErrKeyTooLong
	}

	if resp, err := s.Lookup(ctx, key); err != nil || resp != nil {
		return resp, err
	}

	lockValue := []byte(strconv.FormatInt(time.Now().UnixNano(), 10))
	acquired, err := s.redis.SetNX(ctx, s.config.LockKeyPrefix+key, lockValue, s.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency lock: %w", err)
	}
	if !acquired {
		// the holder may have finished between the lookup and SETNX
		if resp, err := s.Lookup(ctx, key); err != nil || resp != nil {
			return resp, err
		}
		logger.Info("[idempotency] key is held by another request", "key", key)
		return nil, ErrInProgress
	}
	return nil, nil
}

func (s *Store) Lookup(ctx context.Context, key string) (*Response, error) {
	raw, err := s.redis.Get(ctx, s.config.ResponseKeyPrefix+key)
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read idempotency record: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	return &resp, nil
}

// Complete stores the response for key and drops the lock.
func (s *Store) Complete(ctx context.Context, key string, resp Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode idempotency record: %w", err)
	}
	if err := s.redis.Set(ctx, s.config.ResponseKeyPrefix+key, raw, s.config.ResponseTTL); err != nil {
		return fmt.Errorf("store idempotency record: %w", err)
	}
	if err := s.redis.Del(ctx, s.config.LockKeyPrefix+key); err != nil {
		logger.Warn("[idempotency] failed to remove lock", "key", key, "error", err)
	}
	return nil
}

// Release drops the lock without storing anything so the client may retry.
func (s *Store) Release(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.config.LockKeyPrefix+key); err != nil {
		logger.Warn("[idempotency] failed to release lock", "key", key, "error", err)
		return err
	}
	return nil
}
