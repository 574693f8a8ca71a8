package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/hookkeeper/internal/database"
	"github.com/edgard/hookkeeper/internal/lock"
	"github.com/edgard/hookkeeper/internal/transport"
)

// DefaultServerURL is the public Telegram Bot API endpoint.
const DefaultServerURL = "https://api.telegram.org"

const maxAckBytes = 1 << 20

// ErrWebhookUpdateFailed is returned when the webhook state cannot be read
// or corrected. Callers treat it as fatal at startup.
var ErrWebhookUpdateFailed = errors.New("webhook update failed")

// Result reports what a reconciliation did.
type Result int

const (
	Unchanged Result = iota
	Updated
)

func (r Result) String() string {
	switch r {
	case Unchanged:
		return database.OutcomeUnchanged
	case Updated:
		return database.OutcomeUpdated
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// DesiredState is the webhook registration computed from configuration.
type DesiredState struct {
	URL            string
	MaxConnections int
}

// NewDesiredState composes the callback URL and validates the target.
func NewDesiredState(baseURL, token string, maxConnections int) (DesiredState, error) {
	u, err := Compose(baseURL, token)
	if err != nil {
		return DesiredState{}, err
	}
	if maxConnections <= 0 {
		return DesiredState{}, fmt.Errorf("%w: max connections must be positive, got %d", ErrInvalidConfiguration, maxConnections)
	}
	return DesiredState{URL: u, MaxConnections: maxConnections}, nil
}

// RemoteState is the platform's view of the webhook registration.
type RemoteState struct {
	URL            string
	MaxConnections int
}

// RemoteStateFromInfo converts a getWebhookInfo result.
func RemoteStateFromInfo(info *models.WebhookInfo) RemoteState {
	if info == nil {
		return RemoteState{}
	}
	return RemoteState{URL: info.URL, MaxConnections: info.MaxConnections}
}

// Diverged reports whether remote needs correcting to match d.
func (d DesiredState) Diverged(remote RemoteState) bool {
	return remote.URL == "" || remote.URL != d.URL || remote.MaxConnections != d.MaxConnections
}

// InfoSource reads the current webhook registration. *bot.Bot implements it.
type InfoSource interface {
	GetWebhookInfo(ctx context.Context) (*models.WebhookInfo, error)
}

// ClientBuilder builds an outbound client for the given proxy settings.
type ClientBuilder interface {
	Build(s transport.Settings) (*http.Client, error)
}

// Journal records reconciliation runs. database.Store implements it.
type Journal interface {
	SaveReconcileRun(ctx context.Context, run *database.ReconcileRun) error
}

// Deps holds the collaborators of a Reconciler. Info, Clients and Locker are
// required; Journal and Logger are optional.
type Deps struct {
	Logger    *slog.Logger
	Info      InfoSource
	Clients   ClientBuilder
	Proxy     transport.Settings
	ServerURL string
	Locker    lock.Locker
	LockKey   string
	Journal   Journal
}

// Reconciler compares the registered webhook with the desired one and
// issues setWebhook only when they differ.
type Reconciler struct {
	deps   Deps
	logger *slog.Logger
}

// NewReconciler validates deps and returns a Reconciler.
func NewReconciler(deps Deps) (*Reconciler, error) {
	if deps.Info == nil {
		return nil, fmt.Errorf("webhook info source cannot be nil")
	}
	if deps.Clients == nil {
		return nil, fmt.Errorf("client builder cannot be nil")
	}
	if deps.Locker == nil {
		return nil, fmt.Errorf("locker cannot be nil")
	}
	if deps.ServerURL == "" {
		deps.ServerURL = DefaultServerURL
	}
	deps.ServerURL = strings.TrimRight(deps.ServerURL, "/")
	if deps.LockKey == "" {
		deps.LockKey = "default"
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reconciler{deps: deps, logger: logger.With("component", "webhook_reconciler")}, nil
}

// Reconcile runs one read-compare-write cycle under the per-bot lock.
// A single attempt is made; there is no retry.
func (r *Reconciler) Reconcile(ctx context.Context, desired DesiredState, token string) (Result, error) {
	return r.reconcile(ctx, desired, token, "startup")
}

// ReconcileFrom is Reconcile with the journaled source set to source.
func (r *Reconciler) ReconcileFrom(ctx context.Context, source string, desired DesiredState, token string) (Result, error) {
	return r.reconcile(ctx, desired, token, source)
}

func (r *Reconciler) reconcile(ctx context.Context, desired DesiredState, token, source string) (Result, error) {
	log := r.logger.With("source", source, "desired_url", Redact(desired.URL, token), "max_connections", desired.MaxConnections)

	unlock, err := r.deps.Locker.Lock(ctx, "webhook:"+r.deps.LockKey)
	if err != nil {
		return Unchanged, fmt.Errorf("%w: acquire lock: %w", ErrWebhookUpdateFailed, err)
	}
	defer unlock()

	start := time.Now()
	run := &database.ReconcileRun{
		BotKey:         r.deps.LockKey,
		Source:         source,
		DesiredURL:     Redact(desired.URL, token),
		MaxConnections: desired.MaxConnections,
	}

	result, remote, err := r.converge(ctx, desired, token)
	run.RemoteURL = Redact(remote.URL, token)
	run.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		err = &redactedError{err: err, token: token}
		run.Outcome = database.OutcomeFailed
		run.Error = err.Error()
		r.record(ctx, run)
		log.ErrorContext(ctx, "Webhook reconciliation failed", "error", run.Error)
		return Unchanged, err
	}

	run.Outcome = result.String()
	r.record(ctx, run)
	if result == Updated {
		log.InfoContext(ctx, "Webhook updated", "previous_url", run.RemoteURL, "previous_max_connections", remote.MaxConnections)
	} else {
		log.DebugContext(ctx, "Webhook already up to date")
	}
	return result, nil
}

func (r *Reconciler) converge(ctx context.Context, desired DesiredState, token string) (Result, RemoteState, error) {
	info, err := r.deps.Info.GetWebhookInfo(ctx)
	if err != nil {
		return Unchanged, RemoteState{}, fmt.Errorf("%w: get webhook info: %w", ErrWebhookUpdateFailed, err)
	}
	remote := RemoteStateFromInfo(info)

	if !desired.Diverged(remote) {
		return Unchanged, remote, nil
	}

	if err := r.setWebhook(ctx, desired, token); err != nil {
		return Unchanged, remote, fmt.Errorf("%w: %w", ErrWebhookUpdateFailed, err)
	}
	return Updated, remote, nil
}

type setWebhookRequest struct {
	URL            string `json:"url"`
	MaxConnections int    `json:"max_connections"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// setWebhook POSTs the desired state through a client built for the
// configured proxy.
func (r *Reconciler) setWebhook(ctx context.Context, desired DesiredState, token string) error {
	client, err := r.deps.Clients.Build(r.deps.Proxy)
	if err != nil {
		return fmt.Errorf("build client: %w", err)
	}

	body, err := json.Marshal(setWebhookRequest{URL: desired.URL, MaxConnections: desired.MaxConnections})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	endpoint := r.deps.ServerURL + "/bot" + token + "/setWebhook"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxAckBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var ack apiResponse
	if err := json.Unmarshal(raw, &ack); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !ack.OK {
		return fmt.Errorf("platform rejected setWebhook (status %d, code %d): %s", resp.StatusCode, ack.ErrorCode, ack.Description)
	}
	return nil
}

// redactedError hides the bot token that transport errors carry in the
// request URL while keeping the chain intact for errors.Is.
type redactedError struct {
	err   error
	token string
}

func (e *redactedError) Error() string { return Redact(e.err.Error(), e.token) }

func (e *redactedError) Unwrap() error { return e.err }

func (r *Reconciler) record(ctx context.Context, run *database.ReconcileRun) {
	if r.deps.Journal == nil {
		return
	}
	if err := r.deps.Journal.SaveReconcileRun(ctx, run); err != nil {
		r.logger.WarnContext(ctx, "Failed to journal reconcile run", "error", err)
	}
}
