package goEnroll

import (
	"context"
	"io"

	internalaudit "github.com/enrollkit/goEnroll/internal/audit"
	internalmetrics "github.com/enrollkit/goEnroll/internal/metrics"
)

// Account is the directory record for one registered identity. PasswordHash
// is opaque to the engine; only the configured [PasswordHasher] interprets it.
type Account struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         string
	Enabled      bool
}

// RegistrationRequest is the input to [Engine.Register].
type RegistrationRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// TokenBundle is the response shape of [Engine.ConfirmToken], [Engine.Login]
// and [Engine.Refresh]. TokenType carries the "Bearer " prefix verbatim, with
// its trailing space, so clients can concatenate it directly with the access
// token. ExpiresAt is the access token expiry in Unix milliseconds.
type TokenBundle struct {
	TokenType    string `json:"tokenType"`
	ExpiresAt    int64  `json:"expiresAt"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenTypeBearer is the TokenType value of every issued [TokenBundle].
const TokenTypeBearer = "Bearer "

// AccountDirectory is the host-owned account store. The engine never talks to
// the backing database directly; persistence, uniqueness constraints and
// schema belong to the host.
//
// FindByEmail reports a missing account as (nil, nil). A non-nil error means
// the directory itself failed and is mapped to [ErrDirectoryUnavailable].
type AccountDirectory interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Save(ctx context.Context, account Account) (Account, error)
	Enable(ctx context.Context, accountID string) error
}

// PasswordHasher hashes and verifies login passwords. The default is the
// Argon2id hasher from the password package.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Matches(plaintext, hash string) bool
}

// EmailValidator decides whether an address is acceptable for registration.
type EmailValidator interface {
	IsValid(email string) bool
}

// EmailDispatcher delivers activation mail. Delivery is best-effort: a Send
// error is audited and counted but never fails the registration.
type EmailDispatcher interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// AuditEvent is a structured audit record emitted by the Engine.
type AuditEvent = internalaudit.Event

// AuditSink consumes audit events from the async dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink discards all audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink forwards audit events to a buffered channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per event to an io.Writer.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a specific counter in the in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	MetricRegistrationSuccess = MetricID(internalmetrics.MetricRegistrationSuccess)
	MetricRegistrationFailure = MetricID(internalmetrics.MetricRegistrationFailure)
	MetricConfirmationIssued  = MetricID(internalmetrics.MetricConfirmationIssued)
	MetricConfirmationSuccess = MetricID(internalmetrics.MetricConfirmationSuccess)
	MetricConfirmationFailure = MetricID(internalmetrics.MetricConfirmationFailure)
	MetricLoginSuccess        = MetricID(internalmetrics.MetricLoginSuccess)
	MetricLoginFailure        = MetricID(internalmetrics.MetricLoginFailure)
	MetricRefreshSuccess      = MetricID(internalmetrics.MetricRefreshSuccess)
	MetricRefreshFailure      = MetricID(internalmetrics.MetricRefreshFailure)
	MetricReplayDetected      = MetricID(internalmetrics.MetricReplayDetected)
	MetricMailDispatchFailure = MetricID(internalmetrics.MetricMailDispatchFailure)
)

// Metrics holds the engine's atomic counters.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all counters.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled: cfg.Enabled,
	})
}
