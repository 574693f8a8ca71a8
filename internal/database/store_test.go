package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	db, err := NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { CloseDB(db) })
	return NewStore(db, nil)
}

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"storage.db":                        "storage.db",
		"file:storage.db":                   "storage.db",
		"file:storage.db?_pragma=foreign=1": "storage.db",
		"file:my%20bot.db":                  "my bot.db",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtractDBNameFromPath(in), in)
	}
}

func TestSaveAndLoadLastRun(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	last, err := store.LastReconcileRun(ctx, "42")
	require.NoError(t, err)
	assert.Nil(t, last)

	first := &ReconcileRun{BotKey: "42", Source: "startup", Outcome: OutcomeUpdated, DesiredURL: "https://example.com/callback/<redacted>", MaxConnections: 40}
	require.NoError(t, store.SaveReconcileRun(ctx, first))
	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second := &ReconcileRun{BotKey: "42", Source: "scheduler", Outcome: OutcomeUnchanged, MaxConnections: 40, DurationMS: 12}
	require.NoError(t, store.SaveReconcileRun(ctx, second))

	other := &ReconcileRun{BotKey: "7", Source: "startup", Outcome: OutcomeFailed, Error: "boom"}
	require.NoError(t, store.SaveReconcileRun(ctx, other))

	last, err = store.LastReconcileRun(ctx, "42")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, second.ID, last.ID)
	assert.Equal(t, OutcomeUnchanged, last.Outcome)
	assert.Equal(t, "scheduler", last.Source)
	assert.Equal(t, int64(12), last.DurationMS)
}

func TestSaveReconcileRunValidation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.SaveReconcileRun(ctx, nil))
	assert.Error(t, store.SaveReconcileRun(ctx, &ReconcileRun{Outcome: OutcomeUpdated}))
	assert.Error(t, store.SaveReconcileRun(ctx, &ReconcileRun{BotKey: "42", Outcome: "maybe"}))
}

func TestRunSQLMaintenancePrunesOldRuns(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	old := &ReconcileRun{BotKey: "42", Outcome: OutcomeUpdated, CreatedAt: time.Now().UTC().Add(-60 * 24 * time.Hour)}
	require.NoError(t, store.SaveReconcileRun(ctx, old))

	require.NoError(t, store.RunSQLMaintenance(ctx, 0))

	last, err := store.LastReconcileRun(ctx, "42")
	require.NoError(t, err)
	assert.Nil(t, last, "runs older than the retention window are pruned")

	fresh := &ReconcileRun{BotKey: "42", Outcome: OutcomeUnchanged}
	require.NoError(t, store.SaveReconcileRun(ctx, fresh))
	require.NoError(t, store.RunSQLMaintenance(ctx, time.Hour))

	last, err = store.LastReconcileRun(ctx, "42")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, fresh.ID, last.ID)
}
