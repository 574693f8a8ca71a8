// Package commands advertises the bot's slash commands to Telegram clients.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/hookkeeper/internal/bot/handlers"
)

// ErrCommandPublishFailed is returned when the command list could not be set.
var ErrCommandPublishFailed = errors.New("command publish failed")

// Setter is the part of the Bot API client the publisher needs.
type Setter interface {
	SetMyCommands(ctx context.Context, params *tgbot.SetMyCommandsParams) (bool, error)
}

// Publisher sends the command list in a single setMyCommands call.
type Publisher struct {
	setter Setter
	logger *slog.Logger
}

// NewPublisher creates a Publisher.
func NewPublisher(setter Setter, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Publisher{setter: setter, logger: logger.With("component", "command_publisher")}
}

// Descriptors returns the advertised commands of hs in order. Handlers that
// are not commands are skipped. Duplicates are kept.
func Descriptors(hs []handlers.Handler) []models.BotCommand {
	var out []models.BotCommand
	for _, h := range hs {
		c, ok := h.(handlers.CommandHandler)
		if !ok {
			continue
		}
		out = append(out, models.BotCommand{Command: c.Command(), Description: c.Description()})
	}
	return out
}

// Publish advertises the commands in hs for the default scope. An empty
// languageCode applies to users of every language. Nothing is sent when hs
// holds no commands.
func (p *Publisher) Publish(ctx context.Context, hs []handlers.Handler, languageCode string) error {
	cmds := Descriptors(hs)
	if len(cmds) == 0 {
		p.logger.DebugContext(ctx, "No commands to publish")
		return nil
	}

	ok, err := p.setter.SetMyCommands(ctx, &tgbot.SetMyCommandsParams{
		Commands:     cmds,
		Scope:        &models.BotCommandScopeDefault{},
		LanguageCode: languageCode,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCommandPublishFailed, err)
	}
	if !ok {
		return fmt.Errorf("%w: not acknowledged", ErrCommandPublishFailed)
	}

	p.logger.InfoContext(ctx, "Published bot commands", "count", len(cmds), "language_code", languageCode)
	return nil
}
