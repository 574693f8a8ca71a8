// Package main contains the entrypoint for the hookkeeper bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edgard/hookkeeper/internal/bot"
	"github.com/edgard/hookkeeper/internal/bot/handlers"
	"github.com/edgard/hookkeeper/internal/bot/tasks"
	"github.com/edgard/hookkeeper/internal/commands"
	"github.com/edgard/hookkeeper/internal/config"
	"github.com/edgard/hookkeeper/internal/database"
	"github.com/edgard/hookkeeper/internal/lock"
	"github.com/edgard/hookkeeper/internal/logger"
	"github.com/edgard/hookkeeper/internal/telegram"
	"github.com/edgard/hookkeeper/internal/transport"
	"github.com/edgard/hookkeeper/internal/webhook"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component, reconciles the webhook, serves updates until
// shutdown, and returns the process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}
	token := cfg.Telegram.Token

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	proxy, err := cfg.Proxy.Settings()
	if err != nil {
		log.Error("Invalid proxy configuration", "error", err)
		return 1
	}
	selector := transport.Selector{Timeout: cfg.Telegram.RequestTimeout}
	client, err := selector.Build(proxy)
	if err != nil {
		log.Error("Failed to build outbound HTTP client", "proxy_kind", proxy.Kind.String(), "error", err)
		return 1
	}

	tg, err := telegram.NewTelegramBot(token, log,
		telegram.ClientOptions(token, cfg.Telegram.APIServerURL, client, cfg.Telegram.RequestTimeout, log)...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	// Retrieve bot info and store it in the config for runtime use
	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", webhook.Redact(err.Error(), token))
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)
	if cfg.Telegram.Username != "" && cfg.Telegram.Username != cfg.Telegram.BotInfo.Username {
		log.Warn("Configured username does not match the token's bot",
			"configured", cfg.Telegram.Username, "actual", cfg.Telegram.BotInfo.Username)
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	var locker lock.Locker = lock.NewLocal()
	if cfg.Lock.Backend == "redis" {
		rl, err := lock.NewRedis(ctx, cfg.Lock.RedisConfig(), log)
		if err != nil {
			log.Error("Failed to connect to redis lock backend", "addr", cfg.Lock.RedisAddr, "error", err)
			return 1
		}
		defer func() {
			if err := rl.Close(); err != nil {
				log.Error("Error closing redis lock backend", "error", err)
			}
		}()
		locker = rl
	}

	desired, err := webhook.NewDesiredState(cfg.Webhook.BaseURL, token, cfg.Webhook.MaxConnections)
	if err != nil {
		log.Error("Invalid webhook configuration", "error", webhook.Redact(err.Error(), token))
		return 1
	}

	reconciler, err := webhook.NewReconciler(webhook.Deps{
		Logger:    log,
		Info:      tg,
		Clients:   selector,
		Proxy:     proxy,
		ServerURL: cfg.Telegram.APIServerURL,
		Locker:    locker,
		LockKey:   cfg.BotKey(),
		Journal:   store,
	})
	if err != nil {
		log.Error("Failed to create webhook reconciler", "error", err)
		return 1
	}

	hDeps := handlers.HandlerDeps{
		Logger: log,
		Config: cfg,
		Store:  store,
	}
	registry := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, registry); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger:     log,
		Store:      store,
		Config:     cfg,
		Reconciler: reconciler,
		Desired:    desired,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)

	app, err := bot.NewBot(bot.Deps{
		Logger:     log,
		Config:     cfg,
		Desired:    desired,
		Reconciler: reconciler,
		Publisher:  commands.NewPublisher(tg, log),
		Updates:    tg,
		Handlers:   registry,
		Scheduler:  sched,
		Reload:     reload,
	})
	if err != nil {
		log.Error("Failed to create bot", "error", webhook.Redact(err.Error(), token))
		return 1
	}

	log.Info("Starting bot...", "webhook_url", webhook.Redact(desired.URL, token))
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}
