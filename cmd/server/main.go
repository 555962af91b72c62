package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"visaflow/internal/platform/config"
	"visaflow/internal/platform/httpserver"
	"visaflow/internal/platform/logger"
)

const purgeInterval = 10 * time.Minute

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps, err := buildDependencies(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer deps.Close(log)

	srv := httpserver.New(cfg.Server.Addr, newRouter(cfg, log, reg, deps),
		httpserver.WithWriteTimeout(3*cfg.Extraction.Timeout),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting visaflow",
			"addr", cfg.Server.Addr,
			"session_store", cfg.Session.Store,
			"kafka_enabled", deps.kafka != nil,
		)
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout, log)
	})
	if deps.purger != nil {
		g.Go(func() error {
			purgeExpired(gctx, log, deps.purger)
			return nil
		})
	}
	return g.Wait()
}

type expiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// purgeExpired drops expired interviews from stores without native TTLs.
func purgeExpired(ctx context.Context, log *slog.Logger, p expiredPurger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PurgeExpired(ctx)
			if err != nil {
				log.WarnContext(ctx, "failed to purge expired interviews", "error", err)
				continue
			}
			if n > 0 {
				log.InfoContext(ctx, "purged expired interviews", "count", n)
			}
		}
	}
}
