// Package main is the entry point for the sales ledger API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"salesledger/internal/config"
	"salesledger/internal/domain/cancellation"
	"salesledger/internal/domain/credit"
	"salesledger/internal/domain/documents/returns"
	"salesledger/internal/domain/documents/sale"
	"salesledger/internal/domain/identity"
	"salesledger/internal/domain/registers/stock"
	v1 "salesledger/internal/infrastructure/http/v1"
	"salesledger/internal/infrastructure/http/v1/middleware"
	"salesledger/internal/infrastructure/migration"
	"salesledger/internal/infrastructure/numerator"
	"salesledger/internal/infrastructure/storage/postgres"
	"salesledger/internal/infrastructure/storage/postgres/auth_repo"
	"salesledger/internal/infrastructure/storage/postgres/catalog_repo"
	"salesledger/internal/infrastructure/storage/postgres/document_repo"
	"salesledger/internal/infrastructure/storage/postgres/register_repo"
	"salesledger/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
		Service:     cfg.App.Name,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting sales ledger server", "env", cfg.App.Env, "version", version)

	if cfg.Database.MigrationsOnBoot {
		if err := runMigrations(cfg.Database.URL, log); err != nil {
			log.Fatalw("failed to apply migrations", "error", err)
		}
	}

	loc, err := cfg.Ledger.Location()
	if err != nil {
		log.Fatalw("invalid ledger timezone", "error", err)
	}

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.AppName = cfg.App.Name
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.Database.MaxConnIdleTime
	poolCfg.StatementTimeout = cfg.Database.StatementTimeout
	poolCfg.LockTimeout = cfg.Database.LockTimeout

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txOpts := postgres.DefaultTxOptions()
	txOpts.StatementTimeout = cfg.Database.StatementTimeout
	txOpts.LockTimeout = cfg.Database.LockTimeout
	txm := postgres.NewTxManager(pool).WithOptions(txOpts)

	auditService, err := postgres.NewAuditService(txm, cfg.Audit.CompressThreshold)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}
	outbox := postgres.NewOutboxPublisher(txm)
	numbers := numerator.New(pool)

	// --- Repositories ---
	products := catalog_repo.NewProductRepo(txm)
	ledger := register_repo.NewStockRepo(txm)
	saleRepo := document_repo.NewSaleRepo(txm)
	payments := document_repo.NewPaymentRepo(txm)
	returnRepo := document_repo.NewReturnRepo(txm)

	// --- Services ---
	resolver := identity.NewResolver(auth_repo.NewUserRepo(txm), cfg.Ledger.DefaultAccountID, auditService)
	stockPool := stock.NewPools(products, ledger)

	sales := sale.NewService(saleRepo, payments, stockPool, resolver, numbers, txm, outbox).
		WithReceiptRangeSize(cfg.Ledger.ReceiptRangeSize).
		WithLocation(loc)
	returnProcessor := returns.NewProcessor(saleRepo, sales, returnRepo, stockPool, resolver, numbers, txm, auditService, outbox).
		WithLocation(loc)
	canceller := cancellation.NewProcessor(saleRepo, payments, stockPool, resolver, txm, auditService, outbox)

	var idempotency middleware.IdempotencyStore
	if cfg.HTTP.IdempotencyEnabled {
		idempotency = postgres.NewIdempotencyStore(txm, cfg.HTTP.IdempotencyTTL)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		Database:     pool,
		AppName:      cfg.App.Name,
		Version:      version,
		Sales:        sales,
		Returns:      returnProcessor,
		Cancellation: canceller,
		Credit:       credit.NewService(returnRepo, saleRepo),
		Stock:        stock.NewService(products, ledger, resolver, txm, outbox),
		Audit:        auditService,
		Idempotency:  idempotency,
		Development:  cfg.App.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Infow("server starting", "port", cfg.HTTP.Port, "idempotency", cfg.HTTP.IdempotencyEnabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func runMigrations(databaseURL string, log *logger.Logger) error {
	m, err := migration.NewFromURL(databaseURL, log)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}
