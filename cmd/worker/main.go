package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/suPer8Hu/recruiter-chat/internal/analytics"
	"github.com/suPer8Hu/recruiter-chat/internal/config"
	"github.com/suPer8Hu/recruiter-chat/internal/db"
	"github.com/suPer8Hu/recruiter-chat/internal/logger"
	"github.com/suPer8Hu/recruiter-chat/internal/store/rabbitmq"
)

// worker drains the analytics queue into the database and runs retention.
func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)
	defer logger.Sync()

	gdb := db.Connect(cfg.DBDSN)
	store := analytics.NewStore(gdb)

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitQueue, cfg.WorkerConcurrency, store.Record)
	if err != nil {
		logger.L.Fatalw("rabbit connect failed", "err", err)
	}
	defer consumer.Close()

	retention := analytics.NewRetention(store, cfg.AnalyticsRetentionDays)
	if err := retention.Start(); err != nil {
		logger.L.Fatalw("start retention job failed", "err", err)
	}
	defer retention.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := consumer.Run(ctx); err != nil {
		logger.L.Errorw("worker stopped", "err", err)
	}
}
