package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks struct tags and the rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return err
	}

	u, err := url.Parse(c.Webhook.BaseURL)
	if err != nil {
		return fmt.Errorf("webhook.base_url: %w", err)
	}
	// Telegram only delivers updates to HTTPS endpoints.
	if u.Scheme != "https" {
		return fmt.Errorf("webhook.base_url must use https, got %q", u.Scheme)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("webhook.base_url must not carry a query or fragment")
	}

	if strings.ContainsAny(c.Telegram.Token, "/?# ") {
		return fmt.Errorf("telegram.token contains characters not allowed in a URL path")
	}

	return nil
}

// IsAdmin reports whether userID may use admin-only commands.
// With no admin configured nobody is.
func (c *Config) IsAdmin(userID int64) bool {
	return c.Telegram.AdminUserID != 0 && userID == c.Telegram.AdminUserID
}
