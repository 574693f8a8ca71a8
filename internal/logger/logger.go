// Package logger provides structured logging for hookkeeper on top of slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewLogger creates a stdout slog Logger with the specified level and format
// and installs it as the default logger.
// If jsonOutput is true, logs will be formatted as JSON, otherwise as text.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	logger := newLogger(os.Stdout, levelStr, jsonOutput)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, levelStr string, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(levelStr),
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a config level name to a slog level. Unknown names are info.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Middleware creates a logging middleware for the Telegram bot.
// It logs every update the webhook handler dispatches.
func Middleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()
			entry := log.With(append([]any{"update_id", update.ID}, updateAttrs(update)...)...)

			entry.DebugContext(ctx, "Processing update")
			next(ctx, b, update)
			entry.InfoContext(ctx, "Finished processing update", "duration", time.Since(start))
		}
	}
}

// updateAttrs names the update kind and the chat and user it came from.
func updateAttrs(update *models.Update) []any {
	switch {
	case update.Message != nil:
		attrs := []any{"update_type", "message", "chat_id", update.Message.Chat.ID}
		if update.Message.From != nil {
			attrs = append(attrs, "user_id", update.Message.From.ID)
		}
		return attrs
	case update.CallbackQuery != nil:
		q := update.CallbackQuery
		attrs := []any{"update_type", "callback_query", "user_id", q.From.ID, "data", q.Data}
		switch {
		case q.Message.Message != nil:
			attrs = append(attrs, "chat_id", q.Message.Message.Chat.ID, "message_accessible", true)
		case q.Message.InaccessibleMessage != nil:
			attrs = append(attrs, "chat_id", q.Message.InaccessibleMessage.Chat.ID, "message_accessible", false)
		}
		return attrs
	default:
		return []any{"update_type", "other"}
	}
}
