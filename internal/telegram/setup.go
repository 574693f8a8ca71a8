// Package telegram creates the Bot API client and registers handlers on it.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/hookkeeper/internal/bot/handlers"
	"github.com/edgard/hookkeeper/internal/logger"
	"github.com/edgard/hookkeeper/internal/webhook"
)

// ClientOptions returns the options every bot instance is built with: the
// proxy-aware HTTP client, the API server, update logging, and error logging
// with the token redacted. getMe is left to the caller.
func ClientOptions(token, serverURL string, client *http.Client, timeout time.Duration, log *slog.Logger) []bot.Option {
	if log == nil {
		log = slog.Default()
	}

	opts := []bot.Option{
		bot.WithSkipGetMe(),
		bot.WithMiddlewares(logger.Middleware(log.With("component", "updates"))),
		bot.WithDefaultHandler(func(ctx context.Context, _ *bot.Bot, update *models.Update) {
			log.DebugContext(ctx, "No handler matched update", "update_id", update.ID)
		}),
		bot.WithErrorsHandler(func(err error) {
			log.Error("Telegram client error", "error", webhook.Redact(err.Error(), token))
		}),
	}
	if client != nil {
		opts = append(opts, bot.WithHTTPClient(timeout, client))
	}
	if serverURL != "" {
		opts = append(opts, bot.WithServerURL(strings.TrimRight(serverURL, "/")))
	}
	return opts
}

// NewTelegramBot creates a new Telegram bot instance using the go-telegram/bot library.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", webhook.Redact(err.Error(), token))
		return nil, fmt.Errorf("failed to create telegram bot: %s", webhook.Redact(err.Error(), token))
	}

	botID, _, _ := strings.Cut(token, ":")
	log.Info("Telegram bot instance created successfully", "bot_id", botID)
	return b, nil
}

// RegisterHandlers registers every handler with the bot instance in order.
func RegisterHandlers(b *bot.Bot, logger *slog.Logger, hs []handlers.Handler) error {
	if b == nil {
		return fmt.Errorf("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	if len(hs) == 0 {
		log.Warn("No handlers provided for registration.")
		return nil
	}

	for _, h := range hs {
		if h == nil {
			log.Warn("Skipping registration for nil handler")
			continue
		}
		id := h.Register(b)
		if c, ok := h.(handlers.CommandHandler); ok {
			log.Debug("Registered command", "command", c.Command(), "handler_id", id)
		} else {
			log.Debug("Registered handler", "handler_id", id)
		}
	}

	log.Info("Registered Telegram handlers successfully", "count", len(hs))
	return nil
}
