package tasks

import (
	"context"

	"github.com/edgard/hookkeeper/internal/config"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context is cancelled when the scheduler stops.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns every known task keyed by the name used in the
// scheduler.tasks configuration section.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		config.TaskSQLMaintenance: newSQLMaintenanceTask(deps),
	}
	if deps.Reconciler != nil {
		tasks[config.TaskWebhookReconcile] = newWebhookReconcileTask(deps)
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
