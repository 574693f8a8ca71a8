// Package config provides configuration loading, validation, and defaults
// for hookkeeper. Values come from a YAML file overlaid with BOT_* environment
// variables (e.g. BOT_TELEGRAM_TOKEN).
package config

import (
	"errors"
	"time"

	"github.com/go-telegram/bot/models"
)

// ErrConfiguration wraps every loading or validation failure.
var ErrConfiguration = errors.New("configuration error")

// Config is the complete application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Proxy     ProxyConfig     `mapstructure:"proxy"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Lock      LockConfig      `mapstructure:"lock"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Commands  CommandsConfig  `mapstructure:"commands"`
}

// LoggerConfig controls log verbosity and format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot identity and Bot API settings.
type TelegramConfig struct {
	Token          string        `mapstructure:"token"           validate:"required"`
	Username       string        `mapstructure:"username"`
	AdminUserID    int64         `mapstructure:"admin_user_id"   validate:"gte=0"`
	APIServerURL   string        `mapstructure:"api_server_url"  validate:"required,url"`
	LanguageCode   string        `mapstructure:"language_code"   validate:"omitempty,len=2"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=5m"`

	// BotInfo is filled at startup from getMe.
	BotInfo *models.User `mapstructure:"-" validate:"-"`
}

// WebhookConfig describes the desired webhook registration and the local
// listener that receives updates.
type WebhookConfig struct {
	BaseURL         string        `mapstructure:"base_url"         validate:"required,url"`
	MaxConnections  int           `mapstructure:"max_connections"  validate:"min=1,max=100"`
	ListenAddr      string        `mapstructure:"listen_addr"      validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s,max=2m"`
}

// ProxyConfig selects the upstream proxy for outbound Bot API calls.
type ProxyConfig struct {
	Kind string `mapstructure:"kind" validate:"oneof=none http socks4 socks5"`
	Host string `mapstructure:"host" validate:"required_unless=Kind none"`
	Port int    `mapstructure:"port" validate:"required_unless=Kind none,omitempty,min=1,max=65535"`
}

// DatabaseConfig locates the reconcile journal.
type DatabaseConfig struct {
	Path      string        `mapstructure:"path"      validate:"required"`
	Retention time.Duration `mapstructure:"retention" validate:"min=1h"`
}

// LockConfig selects how reconcile runs are serialized.
type LockConfig struct {
	Backend       string        `mapstructure:"backend"        validate:"oneof=local redis"`
	RedisAddr     string        `mapstructure:"redis_addr"     validate:"required_if=Backend redis,omitempty,hostname_port"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"       validate:"gte=0,lte=15"`
	TTL           time.Duration `mapstructure:"ttl"            validate:"min=1s,max=10m"`
	RetryInterval time.Duration `mapstructure:"retry_interval" validate:"min=10ms,max=10s"`
}

// SchedulerConfig lists scheduled tasks by name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig enables a task and gives its cron schedule (with seconds).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds user-facing texts. "@botname" is replaced with the
// bot's username.
type MessagesConfig struct {
	Welcome      string `mapstructure:"welcome"      validate:"required"`
	Help         string `mapstructure:"help"         validate:"required"`
	Unauthorized string `mapstructure:"unauthorized" validate:"required"`
	GeneralError string `mapstructure:"general_error" validate:"required"`
	StatusEmpty  string `mapstructure:"status_empty" validate:"required"`
}

// CommandsConfig holds the descriptions advertised for each command.
type CommandsConfig struct {
	Start  string `mapstructure:"start"  validate:"required,max=256"`
	Help   string `mapstructure:"help"   validate:"required,max=256"`
	Status string `mapstructure:"status" validate:"required,max=256"`
}
