package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// DefaultRetention is how long journal rows survive maintenance.
const DefaultRetention = 30 * 24 * time.Hour

// Store defines the journal operations. Methods accept a context for
// cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveReconcileRun inserts a run and sets its ID and CreatedAt.
	SaveReconcileRun(ctx context.Context, run *ReconcileRun) error

	// LastReconcileRun returns the newest run for botKey, or nil, nil if none.
	LastReconcileRun(ctx context.Context, botKey string) (*ReconcileRun, error)

	// RunSQLMaintenance prunes runs older than retention and vacuums the file.
	RunSQLMaintenance(ctx context.Context, retention time.Duration) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveReconcileRun(ctx context.Context, run *ReconcileRun) error {
	if run == nil {
		return fmt.Errorf("cannot save nil reconcile run")
	}
	if run.BotKey == "" {
		return fmt.Errorf("reconcile run must have a bot key")
	}
	switch run.Outcome {
	case OutcomeUnchanged, OutcomeUpdated, OutcomeFailed:
	default:
		return fmt.Errorf("reconcile run has unknown outcome %q", run.Outcome)
	}

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO reconcile_runs (created_at, bot_key, source, outcome, desired_url, remote_url, max_connections, error, duration_ms)
        VALUES (:created_at, :bot_key, :source, :outcome, :desired_url, :remote_url, :max_connections, :error, :duration_ms);
    `
	result, err := s.db.NamedExecContext(ctx, query, run)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving reconcile run", "bot_key", run.BotKey, "error", err)
		return fmt.Errorf("failed to save reconcile run for %s: %w", run.BotKey, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving reconcile run", "error", err)
	} else {
		run.ID = id
	}

	s.logger.DebugContext(ctx, "Reconcile run saved", "bot_key", run.BotKey, "run_id", run.ID, "outcome", run.Outcome)
	return nil
}

func (s *sqlxStore) LastReconcileRun(ctx context.Context, botKey string) (*ReconcileRun, error) {
	var run ReconcileRun
	query := `
        SELECT id, created_at, bot_key, source, outcome, desired_url, remote_url, max_connections, error, duration_ms
        FROM reconcile_runs
        WHERE bot_key = ?
        ORDER BY id DESC
        LIMIT 1;
    `
	if err := s.db.GetContext(ctx, &run, query, botKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load last reconcile run for %s: %w", botKey, err)
	}
	return &run, nil
}

func (s *sqlxStore) RunSQLMaintenance(ctx context.Context, retention time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if retention <= 0 {
		retention = DefaultRetention
	}

	cutoff := time.Now().UTC().Add(-retention)
	result, err := s.db.ExecContext(ctx, `DELETE FROM reconcile_runs WHERE created_at < ?;`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune reconcile runs: %w", err)
	}
	pruned, _ := result.RowsAffected()

	// VACUUM cannot run inside a transaction.
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "VACUUM failed", "error", err)
		return fmt.Errorf("failed to vacuum database: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance finished", "pruned_runs", pruned, "cutoff", cutoff)
	return nil
}
