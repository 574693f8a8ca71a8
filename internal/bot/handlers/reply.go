package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/hookkeeper/internal/config"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return textHandler{deps: deps, name: "start", text: func(m config.MessagesConfig) string { return m.Welcome }}.Handle
}

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return textHandler{deps: deps, name: "help", text: func(m config.MessagesConfig) string { return m.Help }}.Handle
}

// textHandler answers a command with one of the configured messages.
type textHandler struct {
	deps HandlerDeps
	name string
	text func(config.MessagesConfig) string
}

func (h textHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", h.name)

	if update.Message == nil {
		log.WarnContext(ctx, "Command received update without message", "update_id", update.ID)
		return
	}

	reply(ctx, b, log, update.Message.Chat.ID, withBotName(h.text(h.deps.Config.Messages), h.deps.Config), nil)
}

// reply sends text to chatID. A failed send is logged and otherwise ignored.
func reply(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string, markup models.ReplyMarkup) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text, ReplyMarkup: markup})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
		return
	}
	log.DebugContext(ctx, "Reply sent", "chat_id", chatID)
}

// withBotName replaces the "@botname" placeholder when the username is known.
func withBotName(text string, cfg *config.Config) string {
	if name := cfg.BotUsername(); name != "" {
		return strings.ReplaceAll(text, "@botname", "@"+name)
	}
	return text
}
