package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"anjo/internal/advisor"
	"anjo/internal/amqp"
	"anjo/internal/backend"
	"anjo/internal/cache"
	"anjo/internal/cli"
	"anjo/internal/config"
	apphttp "anjo/internal/http"
	"anjo/internal/log"
	"anjo/internal/notify"
	"anjo/internal/receipt"
	"anjo/internal/services"
	"anjo/internal/session"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := issueToken(cfg, os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
}

// issueToken prints a bearer token for an owner, for development and
// scripted clients.
func issueToken(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	owner := fs.String("owner", "", "owner id the token authenticates")
	name := fs.String("name", "", "display name used in tips")
	if err := fs.Parse(args); err != nil {
		return err
	}
	m := session.NewManager(cfg.JWTSecret, cfg.SessionTTL)
	if m == nil {
		return errors.New("JWT_SECRET is not set")
	}
	token, err := m.Issue(*owner, *name)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	stores, err := backend.NewFactory(logger).Create(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create backends: %w", err)
	}

	caches := cache.NewManager(logger)
	caches.Register(stores.Remote.Cache())
	caches.StartCleanup(time.Minute)

	inbox := notify.NewInbox(notify.DefaultInboxSize)
	emitter := notify.Fanout{inbox, notify.NewLogEmitter(logger)}

	var queue *amqp.Client
	if cfg.AMQPURL != "" {
		queue, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			// Notifications still reach the inbox without the queue.
			logger.Warn("AMQP unavailable, notifications stay local", log.FieldError, err)
		} else {
			emitter = append(emitter, notify.NewBroker(queue))
		}
	}

	var (
		tips    = advisor.New(nil, logger)
		scanner *receipt.Scanner
	)
	if cfg.AIEnabled && cfg.GeminiAPIKey != "" {
		client, err := advisor.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Warn("Gemini client unavailable, using fallback tips", log.FieldError, err)
		} else {
			tips = advisor.New(advisor.NewGemini(client, cfg.GeminiModel), logger)
			scanner = receipt.NewScanner(receipt.NewGemini(client, cfg.GeminiModel), logger)
			logger.Info("AI services enabled", "model", cfg.GeminiModel)
		}
	}

	ledger := services.NewLedgerService(services.Deps{
		Stores:  stores,
		Emitter: emitter,
		Advisor: tips,
		Scanner: scanner,
		Logger:  logger,
	})

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:             ledger,
		Sessions:           session.NewManager(cfg.JWTSecret, cfg.SessionTTL),
		Inbox:              inbox,
		Ready:              stores.Remote.Ping,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	})
	if err != nil {
		_ = stores.Cleanup()
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting anjo server",
			"port", cfg.Port,
			"local_backend", cfg.LocalBackend,
			"remote_backend", cfg.RemoteBackend,
			"sessions", cfg.SessionsEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}

	cli.RunCleanup(logger, 30*time.Second,
		srv.Shutdown,
		func(context.Context) error { caches.Stop(); return nil },
		func(context.Context) error {
			if queue == nil {
				return nil
			}
			return queue.Close()
		},
		func(context.Context) error { return stores.Cleanup() },
	)
	logger.Info("Server stopped")
	return err
}
