// Package webhook keeps the bot's webhook registration on the Telegram
// platform in line with local configuration.
package webhook

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// callbackSegment is the fixed route under which updates are delivered.
const callbackSegment = "callback/"

const redacted = "<redacted>"

// ErrInvalidConfiguration reports missing or malformed inputs for the
// desired webhook state.
var ErrInvalidConfiguration = errors.New("invalid webhook configuration")

// Compose returns the public callback URL for token under baseURL,
// i.e. <baseURL>/callback/<token> with exactly one separator between parts.
func Compose(baseURL, token string) (string, error) {
	if baseURL == "" {
		return "", fmt.Errorf("%w: base url is empty", ErrInvalidConfiguration)
	}
	if token == "" {
		return "", fmt.Errorf("%w: bot token is empty", ErrInvalidConfiguration)
	}

	var sb strings.Builder
	sb.Grow(len(baseURL) + 1 + len(callbackSegment) + len(token))
	sb.WriteString(baseURL)
	if baseURL[len(baseURL)-1] != '/' {
		sb.WriteByte('/')
	}
	sb.WriteString(callbackSegment)
	sb.WriteString(token)
	return sb.String(), nil
}

// CallbackPath returns the path component of a composed callback URL, which
// is the route the inbound handler must be mounted on.
func CallbackPath(callbackURL string) (string, error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if u.Path == "" {
		return "", fmt.Errorf("%w: callback url has no path", ErrInvalidConfiguration)
	}
	return u.Path, nil
}

// Redact masks every occurrence of token in s.
func Redact(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, redacted)
}
