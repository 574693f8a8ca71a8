package database

import "time"

// Outcome values stored in ReconcileRun.Outcome.
const (
	OutcomeUnchanged = "unchanged"
	OutcomeUpdated   = "updated"
	OutcomeFailed    = "failed"
)

// ReconcileRun is one journaled attempt to bring the platform's webhook
// registration in line with local configuration. URLs are stored with the
// bot token redacted.
type ReconcileRun struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	BotKey         string `db:"bot_key"`
	Source         string `db:"source"`
	Outcome        string `db:"outcome"`
	DesiredURL     string `db:"desired_url"`
	RemoteURL      string `db:"remote_url"`
	MaxConnections int    `db:"max_connections"`
	Error          string `db:"error"`
	DurationMS     int64  `db:"duration_ms"`
}
