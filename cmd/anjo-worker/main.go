package main

import (
	"context"
	"errors"
	"os"
	"time"

	"anjo/internal/amqp"
	"anjo/internal/cache"
	"anjo/internal/cli"
	"anjo/internal/log"
	"anjo/internal/notify"
	"anjo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notification worker")
		os.Exit(1)
	}

	logger.Info("Starting anjo-worker", "queue", cfg.AMQPQueue)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	inbox := notify.NewInbox(notify.DefaultInboxSize)
	w := worker.NewNotificationWorker(notify.Fanout{inbox, notify.NewLogEmitter(logger)}, logger)

	caches := cache.NewManager(logger)
	caches.Register(w.Seen())
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				delivered, skipped := w.Stats()
				logger.Info("Worker stats", "delivered", delivered, "skipped", skipped)
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := client.ConsumeNotifications(ctx, w.Handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}
