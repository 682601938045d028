// Package main is the schema migration tool.
//
// Usage:
//
//	migrate up
//	migrate down
//	migrate steps -1
//	migrate version
//	migrate force 1
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"salesledger/internal/config"
	"salesledger/internal/infrastructure/migration"
	"salesledger/pkg/logger"
)

func main() {
	configDir := flag.String("config", ".", "directory containing config.toml")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("usage: migrate [-config dir] up|down|steps N|version|force V")
		os.Exit(2)
	}

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Development: cfg.App.IsDevelopment()})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	m, err := migration.NewFromURL(cfg.Database.URL, log)
	if err != nil {
		log.Fatalw("failed to create migrator", "error", err)
	}
	defer func() { _ = m.Close() }()

	if err := run(m, flag.Args()); err != nil {
		log.Fatalw("migration failed", "command", flag.Arg(0), "error", err)
	}
}

func run(m *migration.Migrator, args []string) error {
	switch args[0] {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "force":
		v, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Force(v)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func intArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s requires a number", args[0])
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", args[0], err)
	}
	return n, nil
}
