package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends for interview sessions.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config is the full server configuration.
type Config struct {
	Server     Server
	Log        Log
	Resume     Resume
	Session    Session
	Redis      RedisConfig
	Postgres   PostgresConfig
	Kafka      KafkaConfig
	Extraction ExtractionConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type Log struct {
	Level  string
	Format string
}

// Resume configures the signed tokens that let an applicant resume an
// interview.
type Resume struct {
	SigningKey string
	Issuer     string
	TTL        time.Duration
}

// Session selects where interviews live and for how long.
type Session struct {
	Store string
	TTL   time.Duration
	// CatalogPath optionally replaces the embedded requirement catalog.
	CatalogPath string
}

// RedisConfig holds connection pool settings; an empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// KafkaConfig enables the audit publisher when Brokers is non-empty.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
	Partitions int32
}

// ExtractionConfig points at an external OCR service. An empty endpoint
// leaves only the passthrough provider.
type ExtractionConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// FromEnv builds a Config from VISAFLOW_* environment variables so main
// stays lean.
func FromEnv() Config {
	signingKey := os.Getenv("VISAFLOW_RESUME_SIGNING_KEY")
	if signingKey == "" {
		// development default; production must override
		signingKey = "dev-resume-key-change-in-production"
	}

	return Config{
		Server: Server{
			Addr:            envString("VISAFLOW_ADDR", ":8080"),
			ShutdownTimeout: envDuration("VISAFLOW_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: Log{
			Level:  envString("VISAFLOW_LOG_LEVEL", "info"),
			Format: envString("VISAFLOW_LOG_FORMAT", "json"),
		},
		Resume: Resume{
			SigningKey: signingKey,
			Issuer:     envString("VISAFLOW_RESUME_ISSUER", "visaflow"),
			TTL:        envDuration("VISAFLOW_RESUME_TTL", 72*time.Hour),
		},
		Session: Session{
			Store:       strings.ToLower(envString("VISAFLOW_SESSION_STORE", StoreMemory)),
			TTL:         envDuration("VISAFLOW_SESSION_TTL", 72*time.Hour),
			CatalogPath: os.Getenv("VISAFLOW_CATALOG_PATH"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("VISAFLOW_REDIS_URL"),
			PoolSize:     envInt("VISAFLOW_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("VISAFLOW_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("VISAFLOW_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("VISAFLOW_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("VISAFLOW_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:          os.Getenv("VISAFLOW_POSTGRES_DSN"),
			MaxOpenConns: envInt("VISAFLOW_POSTGRES_MAX_OPEN", 10),
			MaxIdleConns: envInt("VISAFLOW_POSTGRES_MAX_IDLE", 5),
		},
		Kafka: KafkaConfig{
			Brokers:    envList("VISAFLOW_KAFKA_BROKERS"),
			AuditTopic: envString("VISAFLOW_KAFKA_AUDIT_TOPIC", "visaflow.audit"),
			Partitions: int32(envInt("VISAFLOW_KAFKA_PARTITIONS", 3)),
		},
		Extraction: ExtractionConfig{
			Endpoint: os.Getenv("VISAFLOW_EXTRACTION_ENDPOINT"),
			Timeout:  envDuration("VISAFLOW_EXTRACTION_TIMEOUT", 20*time.Second),
		},
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
