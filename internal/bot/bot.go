// Package bot wires the webhook reconciler, command publisher, inbound update
// endpoint and scheduler into the running hookkeeper process.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/hookkeeper/internal/bot/handlers"
	"github.com/edgard/hookkeeper/internal/config"
	"github.com/edgard/hookkeeper/internal/webhook"
)

// Reconcile sources recorded in the journal.
const (
	SourceStartup = "startup"
	SourceReload  = "reload"
)

// Reconciler brings the registered webhook in line with the desired state.
type Reconciler interface {
	ReconcileFrom(ctx context.Context, source string, desired webhook.DesiredState, token string) (webhook.Result, error)
}

// CommandPublisher advertises the commands among the registered handlers.
type CommandPublisher interface {
	Publish(ctx context.Context, hs []handlers.Handler, languageCode string) error
}

// UpdateProcessor receives webhook deliveries and dispatches them to handlers.
// *github.com/go-telegram/bot.Bot implements it.
type UpdateProcessor interface {
	StartWebhook(ctx context.Context)
	WebhookHandler() http.HandlerFunc
}

// Deps holds the collaborators of a Bot. Scheduler and Reload are optional.
type Deps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Desired    webhook.DesiredState
	Reconciler Reconciler
	Publisher  CommandPublisher
	Updates    UpdateProcessor
	Handlers   []handlers.Handler
	Scheduler  *Scheduler
	// Reload triggers an extra reconciliation for every value received.
	Reload <-chan os.Signal
}

// Bot represents the main bot application and manages its components' lifecycle.
type Bot struct {
	deps   Deps
	logger *slog.Logger
	path   string
}

// NewBot validates deps and returns a Bot.
func NewBot(deps Deps) (*Bot, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if deps.Reconciler == nil || deps.Publisher == nil || deps.Updates == nil {
		return nil, fmt.Errorf("reconciler, publisher and update processor are required")
	}
	path, err := webhook.CallbackPath(deps.Desired.URL)
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bot{
		deps:   deps,
		logger: logger.With("component", "bot_orchestrator"),
		path:   path,
	}, nil
}

// Startup reconciles the webhook and then publishes the command list. A
// reconcile failure aborts startup; a publish failure is only logged.
func (b *Bot) Startup(ctx context.Context) error {
	token := b.deps.Config.Telegram.Token

	result, err := b.deps.Reconciler.ReconcileFrom(ctx, SourceStartup, b.deps.Desired, token)
	if err != nil {
		return fmt.Errorf("startup webhook reconciliation: %w", err)
	}
	b.logger.InfoContext(ctx, "Webhook reconciled", "result", result.String())

	if err := b.deps.Publisher.Publish(ctx, b.deps.Handlers, b.deps.Config.Telegram.LanguageCode); err != nil {
		b.logger.WarnContext(ctx, "Continuing without updated command list", "error", webhook.Redact(err.Error(), token))
	}
	return nil
}

// Run performs Startup, then listens on the configured address and serves
// until ctx is cancelled or a component fails.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.Startup(ctx); err != nil {
		return err
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", b.deps.Config.Webhook.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", b.deps.Config.Webhook.ListenAddr, err)
	}
	return b.Serve(ctx, ln)
}

// Handler returns the inbound HTTP handler: update deliveries on the callback
// path and a liveness check on /healthz.
func (b *Bot) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST "+b.path, b.deps.Updates.WebhookHandler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	return mux
}

// Serve runs the update endpoint on ln together with the update processor,
// the scheduler and the reload loop. It does not call Startup.
func (b *Bot) Serve(ctx context.Context, ln net.Listener) error {
	b.logger.Info("Starting bot orchestrator...", "listen_addr", ln.Addr().String())

	g, gCtx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler:           b.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("webhook listener failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping webhook listener...")

		timeout := b.deps.Config.Webhook.ShutdownTimeout
		if timeout <= 0 {
			timeout = config.DefaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			b.logger.Error("Error stopping webhook listener", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		b.logger.Info("Starting update processor...")
		b.deps.Updates.StartWebhook(gCtx)
		b.logger.Info("Update processor stopped.")

		if gCtx.Err() == nil {
			return fmt.Errorf("update processor stopped unexpectedly")
		}
		return nil
	})

	if b.deps.Scheduler != nil {
		g.Go(func() error {
			if err := b.deps.Scheduler.Start(gCtx); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			<-gCtx.Done()
			if err := b.deps.Scheduler.Stop(); err != nil {
				b.logger.Error("Error stopping scheduler", "error", err)
			}
			return nil
		})
	}

	if b.deps.Reload != nil {
		g.Go(func() error {
			b.reloadLoop(gCtx)
			return nil
		})
	}

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}

// reloadLoop re-runs reconciliation on every reload signal. Failures are
// logged; the previous registration stays in effect.
func (b *Bot) reloadLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-b.deps.Reload:
			b.logger.InfoContext(ctx, "Reload requested, reconciling webhook", "signal", fmt.Sprint(sig))
			result, err := b.deps.Reconciler.ReconcileFrom(ctx, SourceReload, b.deps.Desired, b.deps.Config.Telegram.Token)
			if err != nil {
				b.logger.ErrorContext(ctx, "Reload reconciliation failed", "error", err)
				continue
			}
			b.logger.InfoContext(ctx, "Reload reconciliation finished", "result", result.String())
		}
	}
}
