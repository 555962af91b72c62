package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"visaflow/internal/interview/models"
	"visaflow/pkg/platform/sentinel"
)

const sessionKeyPrefix = "visaflow:interview:"

// RedisStore keeps each session under one key whose TTL tracks the
// session's ExpiresAt.
type RedisStore struct {
	client redis.UniversalClient
	clock  func() time.Time
}

func NewRedis(client redis.UniversalClient, clock func() time.Time) *RedisStore {
	if clock == nil {
		clock = time.Now
	}
	return &RedisStore{client: client, clock: clock}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Session, error) {
	b, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return decode(b)
}

func (s *RedisStore) Save(ctx context.Context, session *models.Session) error {
	ttl := session.ExpiresAt.Sub(s.clock())
	if ttl <= 0 {
		return fmt.Errorf("save session %s: %w", session.ID, sentinel.ErrExpired)
	}
	b, err := encode(session)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.ID, b, ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
