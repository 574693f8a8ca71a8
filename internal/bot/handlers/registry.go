package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// Handler is anything that can attach itself to the bot's update router.
// Register returns the router's handler ID.
type Handler interface {
	Register(b *tgbot.Bot) string
}

// CommandHandler is a Handler that answers a slash command and can be
// advertised in the client's command menu.
type CommandHandler interface {
	Handler
	Command() string
	Description() string
}

// RegisteredHandler represents a handler with its routing rule and middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// Register wraps the handler with its middleware and adds it to b.
func (h RegisteredHandler) Register(b *tgbot.Bot) string {
	return b.RegisterHandler(h.HandlerType, h.Pattern, h.MatchType, applyMiddleware(h.Handler, h.Middleware))
}

// RegisteredCommand is a RegisteredHandler for a slash command.
type RegisteredCommand struct {
	RegisteredHandler
	Summary string
}

// Command returns the command name without the leading slash.
func (c RegisteredCommand) Command() string { return c.Pattern }

// Description returns the text shown next to the command in the client menu.
func (c RegisteredCommand) Description() string { return c.Summary }

// applyMiddleware wraps a handler function with a slice of middleware.
// The first middleware in the slice is the outermost.
func applyMiddleware(handler tgbot.HandlerFunc, mw []tgbot.Middleware) tgbot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

func command(name, summary string, h tgbot.HandlerFunc, mw ...tgbot.Middleware) RegisteredCommand {
	return RegisteredCommand{
		RegisteredHandler: RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     name,
			Handler:     h,
			Middleware:  mw,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		},
		Summary: summary,
	}
}

// RegisterAllCommands returns every handler in the order commands are
// advertised: /start, /help, /status, then non-command handlers.
func RegisterAllCommands(deps HandlerDeps) []Handler {
	admin := AdminOnly(deps)
	cmds := deps.Config.Commands

	return []Handler{
		command("start", cmds.Start, NewStartHandler(deps)),
		command("help", cmds.Help, NewHelpHandler(deps)),
		command("status", cmds.Status, NewStatusHandler(deps), admin),
		RegisteredHandler{
			HandlerType: tgbot.HandlerTypeCallbackQueryData,
			Pattern:     StatusRefreshData,
			Handler:     NewStatusRefreshHandler(deps),
			Middleware:  []tgbot.Middleware{admin},
			MatchType:   tgbot.MatchTypeExact,
		},
	}
}
