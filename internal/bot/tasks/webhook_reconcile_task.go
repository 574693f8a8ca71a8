package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/edgard/hookkeeper/internal/webhook"
)

// SourceScheduler tags journal rows written by the periodic re-check.
const SourceScheduler = "scheduler"

// newWebhookReconcileTask creates the task that repairs webhook drift, e.g.
// after someone called setWebhook or deleteWebhook by hand. A failure is
// reported to the scheduler and retried on the next tick.
func newWebhookReconcileTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "webhook_reconcile")

	return func(ctx context.Context) error {
		startTime := time.Now()

		result, err := deps.Reconciler.ReconcileFrom(ctx, SourceScheduler, deps.Desired, deps.Config.Telegram.Token)
		duration := time.Since(startTime)
		if err != nil {
			return fmt.Errorf("webhook reconcile failed: %w", err)
		}

		if result == webhook.Updated {
			log.WarnContext(ctx, "Webhook drift repaired", "duration", duration)
		} else {
			log.DebugContext(ctx, "Webhook registration unchanged", "duration", duration)
		}
		return nil
	}
}
