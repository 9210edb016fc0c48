// Command sweeper permanently removes trashed items whose retention
// period has expired, including their blobs. It is intended to be invoked
// by an external cron job, not as an in-process goroutine.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/stashkeep-backend/internal/adapter/postgres"
	"github.com/heartmarshall/stashkeep-backend/internal/adapter/postgres/file"
	"github.com/heartmarshall/stashkeep-backend/internal/adapter/postgres/item"
	"github.com/heartmarshall/stashkeep-backend/internal/adapter/postgres/tag"
	"github.com/heartmarshall/stashkeep-backend/internal/app"
	"github.com/heartmarshall/stashkeep-backend/internal/config"
	"github.com/heartmarshall/stashkeep-backend/internal/service/library"
	"github.com/heartmarshall/stashkeep-backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	blobs, err := storage.NewDisk(cfg.Storage)
	if err != nil {
		logger.Error("open blob storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	svc := library.NewService(
		logger,
		item.New(pool),
		file.New(pool),
		tag.New(pool),
		postgres.NewTxManager(pool),
		blobs,
		cfg.Library,
	)

	deleted, err := svc.Sweep(ctx, cfg.Library.TrashRetentionDays)
	if err != nil {
		logger.Error("trash sweep failed",
			slog.String("error", err.Error()),
			slog.Int("retention_days", cfg.Library.TrashRetentionDays),
		)
		os.Exit(1)
	}

	logger.Info("trash sweep completed",
		slog.Int64("deleted", deleted),
		slog.Int("retention_days", cfg.Library.TrashRetentionDays),
	)
}
