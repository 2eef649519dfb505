package authkit

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/Unfeir/authkit/internal/audit"
	internalmetrics "github.com/Unfeir/authkit/internal/metrics"
)

// Identity is the full account record exchanged with [CredentialStore].
// It carries the password digest, the email-confirmation flag, and the
// single active refresh and password-reset tokens. Each token slot holds
// at most one value; storing a new token replaces the previous one.
//
//	Docs: docs/engine.md
type Identity struct {
	ID             string
	Email          string
	Username       string
	PasswordHash   string
	EmailConfirmed bool

	// RefreshToken is the only refresh token the engine will accept for
	// this identity. nil means no session is active.
	RefreshToken *string

	// PasswordResetToken is the only reset token the engine will accept
	// for this identity. nil means no reset is in progress.
	PasswordResetToken *string

	CreatedAt time.Time
}

// TokenPair is returned by [Engine.Login] and [Engine.Refresh]. TokenType
// is always "bearer".
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}

// SignUpInput is the input for [Engine.SignUp]. Email, Username and
// Password are required.
type SignUpInput struct {
	Email    string
	Username string
	Password string
}

// ConfirmResult is returned by [Engine.ConfirmEmail] and
// [Engine.ResendConfirmation]. AlreadyConfirmed reports that the identity
// was confirmed before the call, which both operations treat as success.
type ConfirmResult struct {
	IdentityID       string
	AlreadyConfirmed bool
}

// CredentialStore is the primary interface that callers must implement to
// integrate authkit with their user database. It covers identity lookup,
// account creation, and persistence of the mutable identity fields
// (confirmation flag, token slots, password digest).
//
// Lookup methods must return [ErrIdentityNotFound] (possibly wrapped) when
// no identity matches. Create must return [ErrEmailTaken] when the email
// is already registered, including on a concurrent-insert race.
//
//	Docs: docs/engine.md, docs/usage.md
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByID(ctx context.Context, id string) (*Identity, error)
	Create(ctx context.Context, identity *Identity) (*Identity, error)
	Save(ctx context.Context, identity *Identity) error
}

// Mailer delivers confirmation and password-reset mail. The engine calls
// it through an asynchronous dispatcher: sends are fire-and-forget, flows
// never fail on mail errors, and failures are counted and logged only.
//
// The token argument is the signed email token the recipient must present
// back to [Engine.ConfirmEmail] or [Engine.ExchangeResetToken].
type Mailer interface {
	SendConfirmation(ctx context.Context, email, username, token string) error
	SendPasswordReset(ctx context.Context, email, username, token string) error
}

// AuditEvent is a structured audit record emitted by the engine.
//
//	Docs: docs/audit.md
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine’s audit dispatcher.
//
//	Docs: docs/audit.md
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
//
//	Docs: docs/audit.md
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
//
//	Docs: docs/audit.md
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
//
//	Docs: docs/audit.md
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
//
//	Docs: docs/audit.md
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a specific counter or histogram bucket in the
// in-process metrics system.
//
//	Docs: docs/metrics.md
type MetricID = internalmetrics.MetricID

// Metric IDs usable with [Engine.MetricsSnapshot] results. One ID per
// counted outcome; MetricAuthorizeLatency is the histogram slot.
const (
	MetricSignUpSuccess           = MetricID(internalmetrics.MetricSignUpSuccess)
	MetricSignUpDuplicate         = MetricID(internalmetrics.MetricSignUpDuplicate)
	MetricSignUpFailure           = MetricID(internalmetrics.MetricSignUpFailure)
	MetricLoginSuccess            = MetricID(internalmetrics.MetricLoginSuccess)
	MetricLoginFailure            = MetricID(internalmetrics.MetricLoginFailure)
	MetricLoginRateLimited        = MetricID(internalmetrics.MetricLoginRateLimited)
	MetricRefreshSuccess          = MetricID(internalmetrics.MetricRefreshSuccess)
	MetricRefreshFailure          = MetricID(internalmetrics.MetricRefreshFailure)
	MetricRefreshReplayDetected   = MetricID(internalmetrics.MetricRefreshReplayDetected)
	MetricConfirmEmailSuccess     = MetricID(internalmetrics.MetricConfirmEmailSuccess)
	MetricConfirmEmailRepeat      = MetricID(internalmetrics.MetricConfirmEmailRepeat)
	MetricConfirmEmailFailure     = MetricID(internalmetrics.MetricConfirmEmailFailure)
	MetricResendConfirmation      = MetricID(internalmetrics.MetricResendConfirmation)
	MetricResetRequest            = MetricID(internalmetrics.MetricResetRequest)
	MetricResetRequestRateLimited = MetricID(internalmetrics.MetricResetRequestRateLimited)
	MetricResetExchange           = MetricID(internalmetrics.MetricResetExchange)
	MetricPasswordSetSuccess      = MetricID(internalmetrics.MetricPasswordSetSuccess)
	MetricPasswordSetFailure      = MetricID(internalmetrics.MetricPasswordSetFailure)
	MetricAuthorizeSuccess        = MetricID(internalmetrics.MetricAuthorizeSuccess)
	MetricAuthorizeFailure        = MetricID(internalmetrics.MetricAuthorizeFailure)
	MetricCacheHit                = MetricID(internalmetrics.MetricCacheHit)
	MetricCacheMiss               = MetricID(internalmetrics.MetricCacheMiss)
	MetricCacheDegraded           = MetricID(internalmetrics.MetricCacheDegraded)
	MetricHashUpgrade             = MetricID(internalmetrics.MetricHashUpgrade)
	MetricMailSent                = MetricID(internalmetrics.MetricMailSent)
	MetricMailFailed              = MetricID(internalmetrics.MetricMailFailed)
	MetricRateLimitHit            = MetricID(internalmetrics.MetricRateLimitHit)
	MetricAuthorizeLatency        = MetricID(internalmetrics.MetricAuthorizeLatency)

	metricIDCount = internalmetrics.MetricIDCount
)

// Metrics holds atomic counters and the optional authorize-latency
// histogram.
//
//	Docs: docs/metrics.md
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
//
//	Docs: docs/metrics.md
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
//
//	Docs: docs/metrics.md
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
