package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultAPIServerURL   = "https://api.telegram.org"
	DefaultRequestTimeout = 30 * time.Second

	DefaultMaxConnections  = 40 // Telegram's own default
	DefaultListenAddr      = ":8080"
	DefaultShutdownTimeout = 10 * time.Second

	DefaultProxyKind = "none"

	DefaultDBPath      = "hookkeeper.db"
	DefaultDBRetention = 30 * 24 * time.Hour

	DefaultLockBackend       = "local"
	DefaultLockTTL           = 30 * time.Second
	DefaultLockRetryInterval = 200 * time.Millisecond
)

// Task names understood by the scheduler.
const (
	TaskWebhookReconcile = "webhook_reconcile"
	TaskSQLMaintenance   = "sql_maintenance"
)

// DefaultTasks is the scheduler configuration used when none is given.
var DefaultTasks = map[string]TaskConfig{
	TaskWebhookReconcile: {Enabled: true, Schedule: "0 */15 * * * *"},
	TaskSQLMaintenance:   {Enabled: true, Schedule: "0 30 3 * * *"},
}

// DefaultMessages holds the default user-facing texts.
var DefaultMessages = MessagesConfig{
	Welcome:      "👋 Hi! I'm @botname. Send /help to see what I can do.",
	Help:         "Available commands:\n/start - greeting\n/help - this message\n/status - webhook status (admin only)",
	Unauthorized: "🚫 You are not authorized to use this command.",
	GeneralError: "❌ An error occurred. Please try again later.",
	StatusEmpty:  "No webhook reconciliation has been recorded yet.",
}

// DefaultCommands holds the default command descriptions.
var DefaultCommands = CommandsConfig{
	Start:  "Start conversation with the bot",
	Help:   "Show available commands",
	Status: "Show webhook registration status (admin only)",
}

// setDefaults registers every default with viper so environment variables
// can override keys that are absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.username", "")
	v.SetDefault("telegram.admin_user_id", 0)
	v.SetDefault("telegram.api_server_url", DefaultAPIServerURL)
	v.SetDefault("telegram.language_code", "")
	v.SetDefault("telegram.request_timeout", DefaultRequestTimeout)

	v.SetDefault("webhook.base_url", "")
	v.SetDefault("webhook.max_connections", DefaultMaxConnections)
	v.SetDefault("webhook.listen_addr", DefaultListenAddr)
	v.SetDefault("webhook.shutdown_timeout", DefaultShutdownTimeout)

	v.SetDefault("proxy.kind", DefaultProxyKind)
	v.SetDefault("proxy.host", "")
	v.SetDefault("proxy.port", 0)

	v.SetDefault("database.path", DefaultDBPath)
	v.SetDefault("database.retention", DefaultDBRetention)

	v.SetDefault("lock.backend", DefaultLockBackend)
	v.SetDefault("lock.redis_addr", "")
	v.SetDefault("lock.redis_password", "")
	v.SetDefault("lock.redis_db", 0)
	v.SetDefault("lock.ttl", DefaultLockTTL)
	v.SetDefault("lock.retry_interval", DefaultLockRetryInterval)

	for name, task := range DefaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.help", DefaultMessages.Help)
	v.SetDefault("messages.unauthorized", DefaultMessages.Unauthorized)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("messages.status_empty", DefaultMessages.StatusEmpty)

	v.SetDefault("commands.start", DefaultCommands.Start)
	v.SetDefault("commands.help", DefaultCommands.Help)
	v.SetDefault("commands.status", DefaultCommands.Status)
}
