package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/hookkeeper/internal/database"
)

// StatusRefreshData is the callback data carried by the status Refresh button.
const StatusRefreshData = "status:refresh"

// NewStatusHandler returns a handler for the /status command.
func NewStatusHandler(deps HandlerDeps) bot.HandlerFunc {
	return statusHandler{deps}.Handle
}

// NewStatusRefreshHandler returns a handler for the status Refresh button.
func NewStatusRefreshHandler(deps HandlerDeps) bot.HandlerFunc {
	return statusHandler{deps}.HandleRefresh
}

type statusHandler struct {
	deps HandlerDeps
}

func (h statusHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "status")

	if update.Message == nil {
		log.WarnContext(ctx, "Status handler received update without message", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	text, err := h.render(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load last reconcile run", "error", err)
		text = h.deps.Config.Messages.GeneralError
	}

	reply(ctx, b, log, chatID, text, refreshKeyboard())
}

func (h statusHandler) HandleRefresh(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "status_refresh")

	query := update.CallbackQuery
	if query == nil {
		return
	}

	answer := &bot.AnswerCallbackQueryParams{CallbackQueryID: query.ID}
	defer func() {
		if _, err := b.AnswerCallbackQuery(ctx, answer); err != nil {
			log.ErrorContext(ctx, "Failed to answer callback query", "error", err)
		}
	}()

	text, err := h.render(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load last reconcile run", "error", err)
		answer.Text = h.deps.Config.Messages.GeneralError
		return
	}

	msg := query.Message.Message
	if msg == nil {
		log.DebugContext(ctx, "Status message no longer accessible")
		return
	}

	_, err = b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		Text:        text,
		ReplyMarkup: refreshKeyboard(),
	})
	if err != nil {
		// Telegram rejects edits that leave the text unchanged.
		log.DebugContext(ctx, "Status message not edited", "error", err, "chat_id", msg.Chat.ID)
	}
}

func (h statusHandler) render(ctx context.Context) (string, error) {
	run, err := h.deps.Store.LastReconcileRun(ctx, h.deps.Config.BotKey())
	if err != nil {
		return "", err
	}
	return formatStatus(run, h.deps.Config.Messages.StatusEmpty), nil
}

func refreshKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "🔄 Refresh", CallbackData: StatusRefreshData}},
		},
	}
}

// formatStatus renders the last journaled reconciliation, or empty when none
// has been recorded.
func formatStatus(run *database.ReconcileRun, empty string) string {
	if run == nil {
		return empty
	}

	var sb strings.Builder
	sb.WriteString("Webhook status\n")
	fmt.Fprintf(&sb, "Outcome: %s\n", run.Outcome)
	fmt.Fprintf(&sb, "Source: %s\n", run.Source)
	fmt.Fprintf(&sb, "URL: %s\n", run.DesiredURL)
	if run.RemoteURL != run.DesiredURL {
		remote := run.RemoteURL
		if remote == "" {
			remote = "(none)"
		}
		fmt.Fprintf(&sb, "Previously: %s\n", remote)
	}
	fmt.Fprintf(&sb, "Max connections: %d\n", run.MaxConnections)
	fmt.Fprintf(&sb, "Checked: %s\n", run.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "Took: %s", time.Duration(run.DurationMS)*time.Millisecond)
	if run.Error != "" {
		fmt.Fprintf(&sb, "\nError: %s", run.Error)
	}
	return sb.String()
}
