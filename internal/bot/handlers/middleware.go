// Package handlers contains Telegram bot command and callback handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AdminOnly creates a middleware that lets only the configured admin through.
// Messages from anyone else get the unauthorized reply; callback queries get
// it as an alert.
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			log := deps.Logger.With("middleware", "AdminOnly")

			switch {
			case update.Message != nil && update.Message.From != nil:
				userID := update.Message.From.ID
				if deps.Config.IsAdmin(userID) {
					next(ctx, bot, update)
					return
				}

				chatID := update.Message.Chat.ID
				log.WarnContext(ctx, "Unauthorized access attempt", "user_id", userID, "chat_id", chatID)

				_, err := bot.SendMessage(ctx, &tgbot.SendMessageParams{
					ChatID: chatID,
					Text:   deps.Config.Messages.Unauthorized,
				})
				if err != nil {
					log.ErrorContext(ctx, "Failed to send unauthorized message", "error", err, "chat_id", chatID)
				}

			case update.CallbackQuery != nil:
				userID := update.CallbackQuery.From.ID
				if deps.Config.IsAdmin(userID) {
					next(ctx, bot, update)
					return
				}

				log.WarnContext(ctx, "Unauthorized callback attempt", "user_id", userID)

				_, err := bot.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
					CallbackQueryID: update.CallbackQuery.ID,
					Text:            deps.Config.Messages.Unauthorized,
					ShowAlert:       true,
				})
				if err != nil {
					log.ErrorContext(ctx, "Failed to answer unauthorized callback", "error", err, "user_id", userID)
				}

			default:
				log.WarnContext(ctx, "Rejecting update without a sender", "update_id", update.ID)
			}
		}
	}
}
