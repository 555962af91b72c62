package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedTokenKeyPrefix = "visaflow:trl:jti:"

// RedisList shares revocations between server instances.
type RedisList struct {
	client redis.UniversalClient
}

func NewRedisList(client redis.UniversalClient) *RedisList {
	return &RedisList{client: client}
}

// Revoke marks every jti revoked for ttl, in one pipeline round trip.
func (l *RedisList) Revoke(ctx context.Context, jtis []string, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	jtis = nonEmpty(jtis)
	if len(jtis) == 0 {
		return nil
	}
	pipe := l.client.Pipeline()
	for _, jti := range jtis {
		// the key's existence is what matters
		pipe.Set(ctx, revokedTokenKeyPrefix+jti, "1", ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (l *RedisList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	_, err := l.client.Get(ctx, revokedTokenKeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
