package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"

	"visaflow/internal/extraction"
	"visaflow/internal/interview/service"
	interviewstore "visaflow/internal/interview/store"
	"visaflow/internal/platform/config"
	platformkafka "visaflow/internal/platform/kafka"
	"visaflow/internal/platform/postgres"
	platformredis "visaflow/internal/platform/redis"
	"visaflow/internal/requirements"
	"visaflow/internal/resumetoken/revocation"
	"visaflow/pkg/platform/audit"
	"visaflow/pkg/platform/audit/publisher"
	kafkasink "visaflow/pkg/platform/audit/store/kafka"
	auditmemory "visaflow/pkg/platform/audit/store/memory"
	auditpostgres "visaflow/pkg/platform/audit/store/postgres"
	"visaflow/pkg/platform/circuit"
)

const auditBuffer = 1024

type revocationList interface {
	Revoke(ctx context.Context, jtis []string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type dependencies struct {
	redis *platformredis.Client
	db    *sql.DB
	kafka *kgo.Client

	catalog     *requirements.Catalog
	sessions    service.Store
	purger      expiredPurger
	revocations revocationList
	auditor     *publisher.Publisher
	extractor   *extraction.Registry
}

func buildDependencies(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer) (*dependencies, error) {
	d := &dependencies{}
	var err error

	if d.catalog, err = loadCatalog(cfg.Session.CatalogPath); err != nil {
		return nil, err
	}

	if d.redis, err = platformredis.New(ctx, cfg.Redis); err != nil {
		return nil, err
	}
	if d.db, err = postgres.Open(ctx, cfg.Postgres); err != nil {
		d.Close(log)
		return nil, err
	}
	if d.db != nil {
		if err := postgres.Migrate(ctx, d.db); err != nil {
			d.Close(log)
			return nil, err
		}
	}

	if err := d.wireSessions(cfg); err != nil {
		d.Close(log)
		return nil, err
	}
	d.wireRevocations()
	if err := d.wireAudit(ctx, cfg, log, reg); err != nil {
		d.Close(log)
		return nil, err
	}
	d.wireExtraction(cfg)
	return d, nil
}

func loadCatalog(path string) (*requirements.Catalog, error) {
	if path == "" {
		return requirements.DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return requirements.LoadCatalog(data)
}

func (d *dependencies) wireSessions(cfg config.Config) error {
	switch cfg.Session.Store {
	case config.StoreMemory:
		d.sessions = interviewstore.NewInMemory(nil)
	case config.StoreRedis:
		if d.redis == nil {
			return fmt.Errorf("session store %q requires VISAFLOW_REDIS_URL", cfg.Session.Store)
		}
		d.sessions = interviewstore.NewRedis(d.redis.Client, nil)
	case config.StorePostgres:
		if d.db == nil {
			return fmt.Errorf("session store %q requires VISAFLOW_POSTGRES_DSN", cfg.Session.Store)
		}
		pg := interviewstore.NewPostgres(d.db, nil)
		d.sessions = pg
		d.purger = pg
	default:
		return fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
	return nil
}

// wireRevocations prefers Redis, then Postgres, so revocations are shared
// across instances whenever either is configured.
func (d *dependencies) wireRevocations() {
	switch {
	case d.redis != nil:
		d.revocations = revocation.NewRedisList(d.redis.Client)
	case d.db != nil:
		d.revocations = revocation.NewPostgresList(d.db)
	default:
		d.revocations = revocation.NewMemoryList(nil)
	}
}

// wireAudit publishes to Kafka when brokers are configured, falling back to
// the durable store while the broker is unreachable.
func (d *dependencies) wireAudit(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer) error {
	var sink audit.Store
	if d.db != nil {
		sink = auditpostgres.New(d.db)
	} else {
		sink = auditmemory.NewInMemoryStore()
	}

	client, err := platformkafka.New(cfg.Kafka)
	if err != nil {
		return err
	}
	if client != nil {
		d.kafka = client
		if err := platformkafka.EnsureTopic(ctx, client, cfg.Kafka.AuditTopic, cfg.Kafka.Partitions); err != nil {
			log.WarnContext(ctx, "could not ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
		sink = kafkasink.New(client, cfg.Kafka.AuditTopic,
			kafkasink.WithFallback(sink),
			kafkasink.WithBreaker(circuit.New("audit-kafka")),
			kafkasink.WithMetrics(kafkasink.NewMetrics(reg)),
			kafkasink.WithLogger(log),
		)
	}

	d.auditor = publisher.NewPublisher(sink,
		publisher.WithAsyncBuffer(auditBuffer),
		publisher.WithLogger(log),
	)
	return nil
}

func (d *dependencies) wireExtraction(cfg config.Config) {
	d.extractor = extraction.NewRegistry(d.catalog)
	if cfg.Extraction.Endpoint != "" {
		_ = d.extractor.Register(extraction.NewHTTPProvider("ocr", cfg.Extraction.Endpoint, cfg.Extraction.Timeout,
			extraction.WithBreaker(circuit.New("extraction-ocr")),
		))
	}
	_ = d.extractor.Register(extraction.NewPassthrough(nil))
}

// Close drains the audit publisher before closing the connections it may
// still be writing to.
func (d *dependencies) Close(log *slog.Logger) {
	if d.auditor != nil {
		d.auditor.Close()
	}
	if d.kafka != nil {
		d.kafka.Close()
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			log.Warn("failed to close redis", "error", err)
		}
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			log.Warn("failed to close postgres", "error", err)
		}
	}
}
