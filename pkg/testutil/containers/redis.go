//go:build integration

package containers

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"visaflow/internal/platform/config"
	platformredis "visaflow/internal/platform/redis"
)

// RedisContainer is a disposable Redis reached through the same client
// constructor the server uses.
type RedisContainer struct {
	Container testcontainers.Container
	Config    config.RedisConfig
	Client    *platformredis.Client
}

// NewRedisContainer starts a Redis container. Use GetManager().GetRedis to
// share one across suites.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7.4-alpine")
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	url, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("redis connection string: %v", err)
	}

	cfg := config.RedisConfig{URL: url, PoolSize: 4, DialTimeout: 5 * time.Second}
	client, err := platformredis.New(ctx, cfg)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("connect redis: %v", err)
	}
	return &RedisContainer{Container: container, Config: cfg, Client: client}
}

// FlushAll empties the database between tests.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushDB(ctx).Err()
}
