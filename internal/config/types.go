package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/edgard/hookkeeper/internal/lock"
	"github.com/edgard/hookkeeper/internal/transport"
)

// Settings converts the proxy section into transport settings.
func (p ProxyConfig) Settings() (transport.Settings, error) {
	kind, err := transport.ParseProxyKind(p.Kind)
	if err != nil {
		return transport.Settings{}, fmt.Errorf("proxy.kind: %w", err)
	}
	if kind == transport.ProxyNone {
		return transport.Settings{Kind: kind}, nil
	}
	return transport.Settings{Kind: kind, Host: p.Host, Port: p.Port}, nil
}

// RedisConfig converts the lock section into Redis locker settings.
func (l LockConfig) RedisConfig() lock.RedisConfig {
	return lock.RedisConfig{
		Addr:          l.RedisAddr,
		Password:      l.RedisPassword,
		DB:            l.RedisDB,
		TTL:           l.TTL,
		RetryInterval: l.RetryInterval,
	}
}

// BotKey identifies the bot in lock keys and journal rows. It is the numeric
// bot ID from getMe when known, otherwise the ID prefix of the token.
func (c *Config) BotKey() string {
	if c.Telegram.BotInfo != nil && c.Telegram.BotInfo.ID != 0 {
		return strconv.FormatInt(c.Telegram.BotInfo.ID, 10)
	}
	if id, _, ok := strings.Cut(c.Telegram.Token, ":"); ok && id != "" {
		return id
	}
	return "default"
}

// BotUsername returns the username reported by getMe, falling back to the
// configured one.
func (c *Config) BotUsername() string {
	if c.Telegram.BotInfo != nil && c.Telegram.BotInfo.Username != "" {
		return c.Telegram.BotInfo.Username
	}
	return c.Telegram.Username
}
