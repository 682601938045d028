// Package main is the entry point for the sales ledger background worker.
// It relays outbox events and cleans up expired housekeeping rows.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"salesledger/internal/config"
	"salesledger/internal/infrastructure/storage/postgres"
	"salesledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
		Service:     cfg.App.Name + "-worker",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting sales ledger worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.AppName = cfg.App.Name + "-worker"
	poolCfg.MaxConns = 4
	poolCfg.MinConns = 1
	poolCfg.StatementTimeout = cfg.Database.StatementTimeout
	poolCfg.LockTimeout = cfg.Database.LockTimeout

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	worker := NewWorker(pool, cfg.Outbox, cfg.HTTP.IdempotencyTTL, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker relays outbox messages and runs periodic cleanup.
type Worker struct {
	pool        *postgres.Pool
	relay       *postgres.OutboxRelay
	idempotency *postgres.IdempotencyStore
	cfg         config.OutboxConfig
	log         *logger.Logger
}

// NewWorker creates a worker over one database pool.
func NewWorker(pool *postgres.Pool, cfg config.OutboxConfig, idempotencyTTL time.Duration, log *logger.Logger) *Worker {
	txManager := postgres.NewTxManager(pool)
	return &Worker{
		pool:        pool,
		relay:       postgres.NewOutboxRelay(txManager, cfg.BatchSize, postgres.LogHandler{}),
		idempotency: postgres.NewIdempotencyStore(txManager, idempotencyTTL),
		cfg:         cfg,
		log:         log.WithComponent("worker"),
	}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(w.cfg.CleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processOutbox(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
			w.pool.LogStats(ctx)
		}
	}
}

func (w *Worker) processOutbox(ctx context.Context) {
	// Drain the backlog without waiting for the next tick.
	for ctx.Err() == nil {
		count, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			w.log.Errorw("outbox batch failed", "error", err)
			return
		}
		if count > 0 {
			w.log.Debugw("processed outbox batch", "count", count)
		}
		if count < w.cfg.BatchSize {
			return
		}
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	if moved, err := w.relay.MoveToDLQ(ctx); err != nil {
		w.log.Errorw("failed to move outbox messages to DLQ", "error", err)
	} else if moved > 0 {
		w.log.Warnw("moved failed outbox messages to DLQ", "count", moved)
	}

	if purged, err := w.relay.PurgePublished(ctx, w.cfg.PublishedRetention); err != nil {
		w.log.Errorw("failed to purge published outbox messages", "error", err)
	} else if purged > 0 {
		w.log.Infow("purged published outbox messages", "count", purged)
	}

	if expired, err := w.idempotency.CleanupExpired(ctx); err != nil {
		w.log.Errorw("failed to clean up idempotency keys", "error", err)
	} else if expired > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", expired)
	}
}
