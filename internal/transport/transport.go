// Package transport builds the outbound HTTP clients used to talk to the
// Telegram Bot API, optionally routed through an upstream proxy.
package transport

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// DefaultTimeout bounds a whole request when the selector has no timeout set.
const DefaultTimeout = 30 * time.Second

const (
	dialTimeout         = 10 * time.Second
	tlsHandshakeTimeout = 10 * time.Second
	idleConnTimeout     = 90 * time.Second
)

// ErrUnsupportedProxyKind is returned for proxy kinds outside the known set.
var ErrUnsupportedProxyKind = errors.New("unsupported proxy kind")

// ProxyKind identifies the tunnelling protocol used for outbound calls.
type ProxyKind int

const (
	ProxyNone ProxyKind = iota
	ProxyHTTP
	ProxySOCKS4
	ProxySOCKS5
)

func (k ProxyKind) String() string {
	switch k {
	case ProxyNone:
		return "none"
	case ProxyHTTP:
		return "http"
	case ProxySOCKS4:
		return "socks4"
	case ProxySOCKS5:
		return "socks5"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// ParseProxyKind maps a configuration value to a ProxyKind. Empty means none.
func ParseProxyKind(s string) (ProxyKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ProxyNone, nil
	case "http":
		return ProxyHTTP, nil
	case "socks4":
		return ProxySOCKS4, nil
	case "socks5":
		return ProxySOCKS5, nil
	default:
		return ProxyNone, fmt.Errorf("%w: %q", ErrUnsupportedProxyKind, s)
	}
}

// Settings describes zero or one upstream proxy.
type Settings struct {
	Kind ProxyKind
	Host string
	Port int
}

// Addr returns the proxy address in host:port form.
func (s Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Selector builds HTTP clients for a given set of proxy settings.
// The zero value is usable and applies DefaultTimeout.
type Selector struct {
	Timeout time.Duration
}

// Build returns a client that routes every request according to s.
// No connection is opened until the first request is issued.
func (sel Selector) Build(s Settings) (*http.Client, error) {
	timeout := sel.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}
	tr := &http.Transport{
		DialContext:         dialer.DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        10,
		IdleConnTimeout:     idleConnTimeout,
		TLSHandshakeTimeout: tlsHandshakeTimeout,
	}

	switch s.Kind {
	case ProxyNone:
	case ProxyHTTP:
		tr.Proxy = http.ProxyURL(&url.URL{Scheme: "http", Host: s.Addr()})
	case ProxySOCKS4, ProxySOCKS5:
		// Both versions share one dialer; the proxy negotiates the protocol.
		d, err := proxy.SOCKS5("tcp", s.Addr(), nil, dialer)
		if err != nil {
			return nil, fmt.Errorf("failed to create socks dialer for %s: %w", s.Addr(), err)
		}
		cd, ok := d.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("socks dialer for %s does not support contexts", s.Addr())
		}
		tr.DialContext = cd.DialContext
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProxyKind, s.Kind)
	}

	return &http.Client{Transport: tr, Timeout: timeout}, nil
}
