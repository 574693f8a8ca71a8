package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/hookkeeper/internal/config"
	"github.com/edgard/hookkeeper/internal/database"
	"github.com/edgard/hookkeeper/internal/webhook"
)

type fakeStore struct {
	database.Store
	retention time.Duration
	err       error
}

func (s *fakeStore) RunSQLMaintenance(_ context.Context, retention time.Duration) error {
	s.retention = retention
	return s.err
}

type fakeReconciler struct {
	source  string
	desired webhook.DesiredState
	token   string
	result  webhook.Result
	err     error
}

func (r *fakeReconciler) ReconcileFrom(_ context.Context, source string, desired webhook.DesiredState, token string) (webhook.Result, error) {
	r.source, r.desired, r.token = source, desired, token
	return r.result, r.err
}

func newDeps(store *fakeStore, rec *fakeReconciler) TaskDeps {
	cfg := &config.Config{}
	cfg.Telegram.Token = "1:tok"
	cfg.Database.Retention = 48 * time.Hour

	deps := TaskDeps{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:   store,
		Config:  cfg,
		Desired: webhook.DesiredState{URL: "https://a/callback/1:tok", MaxConnections: 40},
	}
	if rec != nil {
		deps.Reconciler = rec
	}
	return deps
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	withReconciler := RegisterAllTasks(newDeps(&fakeStore{}, &fakeReconciler{}))
	assert.Contains(t, withReconciler, config.TaskSQLMaintenance)
	assert.Contains(t, withReconciler, config.TaskWebhookReconcile)

	without := RegisterAllTasks(newDeps(&fakeStore{}, nil))
	assert.Contains(t, without, config.TaskSQLMaintenance)
	assert.NotContains(t, without, config.TaskWebhookReconcile)
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	require.NoError(t, newSQLMaintenanceTask(newDeps(store, nil))(context.Background()))
	assert.Equal(t, 48*time.Hour, store.retention)

	store.err = errors.New("locked")
	assert.ErrorIs(t, newSQLMaintenanceTask(newDeps(store, nil))(context.Background()), store.err)
}

func TestWebhookReconcileTask(t *testing.T) {
	t.Parallel()

	for _, result := range []webhook.Result{webhook.Unchanged, webhook.Updated} {
		rec := &fakeReconciler{result: result}
		deps := newDeps(&fakeStore{}, rec)

		require.NoError(t, newWebhookReconcileTask(deps)(context.Background()))
		assert.Equal(t, SourceScheduler, rec.source)
		assert.Equal(t, deps.Desired, rec.desired)
		assert.Equal(t, "1:tok", rec.token)
	}
}

func TestWebhookReconcileTaskError(t *testing.T) {
	t.Parallel()

	rec := &fakeReconciler{err: webhook.ErrWebhookUpdateFailed}
	err := newWebhookReconcileTask(newDeps(&fakeStore{}, rec))(context.Background())
	assert.ErrorIs(t, err, webhook.ErrWebhookUpdateFailed)
}
