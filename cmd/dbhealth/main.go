// dbhealth pings the database and reports how many documents sit in
// each lifecycle state.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/nordbok/invoice-ingest/internal/common"
	"github.com/nordbok/invoice-ingest/internal/repository"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL env var is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, 3*time.Second, logger); err != nil {
		logger.Error("db health failed", "error", err, "code", common.CodeOf(err))
		os.Exit(1)
	}
	logger.Info("db health ok")

	rows, err := pool.Query(ctx, `SELECT status, COUNT(*) FROM ingested_documents GROUP BY status ORDER BY status`)
	if err != nil {
		logger.Error("count documents", "error", err)
		os.Exit(1)
	}
	defer rows.Close()

	total := 0
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			logger.Error("scan", "error", err)
			os.Exit(1)
		}
		logger.Info("documents", "status", status, "count", count)
		total += count
	}
	if err := rows.Err(); err != nil {
		logger.Error("iterate", "error", err)
		os.Exit(1)
	}
	logger.Info("documents total", "count", total)
}
