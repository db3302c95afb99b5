// Command sweep retries deletion of images left behind by failed writes.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"snapgram/internal/appwrite"
	"snapgram/internal/config"
	"snapgram/internal/database"
	"snapgram/internal/observability"
	"snapgram/internal/repository"
	"snapgram/internal/server"
	"snapgram/internal/service"
)

func main() {
	batch := flag.Int("batch", service.DefaultSweepBatch, "Maximum ledger entries to process")
	maxAttempts := flag.Int("max-attempts", service.DefaultSweepMaxAttempts, "Attempts before an entry is marked failed")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	observability.ConfigureLogger(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}

	client, err := server.PlatformClient(cfg)
	if err != nil {
		log.Fatalf("Failed to create platform client: %v", err)
	}

	files := service.NewFileService(
		repository.NewFileRepository(appwrite.NewStorage(client), server.Collections(cfg)),
		repository.NewOrphanRepository(db),
		cfg,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := files.SweepOrphans(ctx, *batch, *maxAttempts)
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
	observability.GlobalLogger.Info("orphan sweep finished",
		slog.Int("resolved", res.Resolved),
		slog.Int("retrying", res.Retrying),
	)
}
