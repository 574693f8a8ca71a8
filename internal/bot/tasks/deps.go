// Package tasks implements the scheduled tasks run by the bot: periodic
// webhook drift repair and journal maintenance.
package tasks

import (
	"context"
	"log/slog"

	"github.com/edgard/hookkeeper/internal/config"
	"github.com/edgard/hookkeeper/internal/database"
	"github.com/edgard/hookkeeper/internal/webhook"
)

// WebhookReconciler re-runs webhook reconciliation on behalf of a named source.
type WebhookReconciler interface {
	ReconcileFrom(ctx context.Context, source string, desired webhook.DesiredState, token string) (webhook.Result, error)
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger     *slog.Logger
	Store      database.Store
	Config     *config.Config
	Reconciler WebhookReconciler
	Desired    webhook.DesiredState
}
