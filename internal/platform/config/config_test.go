package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("VISAFLOW_ADDR", "")
	t.Setenv("VISAFLOW_SESSION_STORE", "")
	t.Setenv("VISAFLOW_KAFKA_BROKERS", "")

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, StoreMemory, cfg.Session.Store)
	assert.Equal(t, 72*time.Hour, cfg.Resume.TTL)
	assert.NotEmpty(t, cfg.Resume.SigningKey)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("VISAFLOW_ADDR", ":9090")
	t.Setenv("VISAFLOW_SESSION_STORE", "Redis")
	t.Setenv("VISAFLOW_SESSION_TTL", "30m")
	t.Setenv("VISAFLOW_REDIS_POOL_SIZE", "not-a-number")
	t.Setenv("VISAFLOW_KAFKA_BROKERS", "a:9092, ,b:9092")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, StoreRedis, cfg.Session.Store)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}
