// Package main provides a CLI tool for seeding the database with initial data.
//
// It always ensures the configured default account exists, because staff
// resolution falls back to it. With SEED_DEMO_DATA=true it also adds demo
// staff and products.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Masterminds/squirrel"

	"salesledger/internal/config"
	"salesledger/internal/core/types"
	"salesledger/internal/infrastructure/storage/postgres"
	"salesledger/pkg/logger"
)

type demoProduct struct {
	id, name, sku, category string
	price, wholesale        types.Money
	stock, reorderLevel     int
}

var demoUsers = [][2]string{
	{"u-cashier-1", "cashier1"},
	{"u-driver-1", "driver1"},
}

var demoProducts = []demoProduct{
	{"p-biscuits", "Biscuits 200g", "BIS-200", "snacks", types.MustMoney("120"), types.MustMoney("105"), 500, 50},
	{"p-juice", "Orange Juice 1L", "JUI-1000", "drinks", types.MustMoney("350"), types.MustMoney("310"), 200, 30},
	{"p-soap", "Soap Bar", "SOA-100", "household", types.MustMoney("90"), types.MustMoney("80"), 300, 40},
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.URL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txm := postgres.NewTxManager(pool)
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := seedUser(ctx, txm, cfg.Ledger.DefaultAccountID, "admin", "Default Account"); err != nil {
			return err
		}
		if os.Getenv("SEED_DEMO_DATA") != "true" {
			return nil
		}
		return seedDemoData(ctx, txm, log)
	})
	if err != nil {
		log.Fatalw("seeding failed", "error", err)
	}

	log.Infow("seeding completed successfully", "default_account", cfg.Ledger.DefaultAccountID)
}

func seedUser(ctx context.Context, txm *postgres.TxManager, userID, username, displayName string) error {
	sql, args, err := psql.Insert("users").
		Columns("id", "username", "display_name", "is_active").
		Values(userID, username, displayName, true).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build user insert: %w", err)
	}
	if _, err := txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert user %s: %w", userID, err)
	}
	return nil
}

func seedDemoData(ctx context.Context, txm *postgres.TxManager, log *logger.Logger) error {
	for _, u := range demoUsers {
		if err := seedUser(ctx, txm, u[0], u[1], u[1]); err != nil {
			return err
		}
	}

	insert := psql.Insert("products").
		Columns("id", "name", "sku", "category", "price", "wholesale_price", "stock", "reorder_level").
		Suffix("ON CONFLICT (id) DO NOTHING")
	for _, p := range demoProducts {
		insert = insert.Values(p.id, p.name, p.sku, p.category, p.price, p.wholesale, p.stock, p.reorderLevel)
	}

	sql, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build product insert: %w", err)
	}
	tag, err := txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("insert demo products: %w", err)
	}

	log.Infow("demo data seeded", "users", len(demoUsers), "products", tag.RowsAffected())
	return nil
}
