package goEnroll

import (
	"context"
	"fmt"
	"time"

	"github.com/enrollkit/goEnroll/internal/audit"
	"github.com/enrollkit/goEnroll/internal/flows"
	"github.com/enrollkit/goEnroll/internal/stores"
	"github.com/enrollkit/goEnroll/token"
)

// Engine is the registration and token facade. It is safe for concurrent use
// after [Builder.Build]; all mutable state lives in Redis.
type Engine struct {
	config        Config
	issuer        *token.Issuer
	confirmations *stores.ConfirmationStore
	replay        *stores.ReplayGuard
	directory     AccountDirectory
	hasher        PasswordHasher
	validator     EmailValidator
	mailer        EmailDispatcher
	audit         *audit.Dispatcher
	metrics       *Metrics
}

// Close flushes and stops the audit dispatcher. The Engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot deep-copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters: map[MetricID]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil &&
		e.issuer != nil &&
		e.confirmations != nil &&
		e.replay != nil &&
		e.directory != nil &&
		e.hasher != nil
}

// Login verifies credentials against the directory and returns a fresh token
// pair. Unknown email and wrong password are indistinguishable, both return
// [ErrInvalidCredentials].
func (e *Engine) Login(ctx context.Context, email, password string) (*TokenBundle, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	result, err := flows.RunLogin(ctx, email, password, flows.LoginDeps{
		FindAccount:    e.findAccountRecord,
		VerifyPassword: e.hasher.Matches,
		IssuePair:      e.issuePairResult,

		MetricInc: e.flowMetricInc,
		EmitAudit: e.flowEmitAudit,

		Metrics: flows.LoginMetrics{
			LoginSuccess: int(MetricLoginSuccess),
			LoginFailure: int(MetricLoginFailure),
		},
		Events: flows.LoginEvents{
			LoginSuccess: auditEventLoginSuccess,
			LoginFailure: auditEventLoginFailure,
		},
		Errors: flows.LoginErrors{
			EngineNotReady:     ErrEngineNotReady,
			InvalidCredentials: ErrInvalidCredentials,
		},
	})
	if err != nil {
		return nil, err
	}
	return bundleFromResult(result), nil
}

// Refresh rotates a refresh token into a fresh pair. The presented token is
// blacklisted for its remaining lifetime, so each refresh token is honored at
// most once; any further use returns [ErrRefreshInvalid].
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenBundle, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	result, err := flows.RunRefresh(ctx, refreshToken, flows.RefreshDeps{
		ExtractClaims: e.issuer.ExtractClaims,
		IsExpired:     e.issuer.IsExpired,

		FindAccount: e.findAccountRecord,
		Blacklist:   e.blacklistTokenID,
		IssuePair:   e.issuePairResult,

		MetricInc: e.flowMetricInc,
		EmitAudit: e.flowEmitAudit,

		Metrics: flows.RefreshMetrics{
			RefreshSuccess: int(MetricRefreshSuccess),
			RefreshFailure: int(MetricRefreshFailure),
			ReplayDetected: int(MetricReplayDetected),
		},
		Events: flows.RefreshEvents{
			RefreshSuccess:        auditEventRefreshSuccess,
			RefreshInvalid:        auditEventRefreshInvalid,
			RefreshReplayDetected: auditEventRefreshReplayDetected,
		},
		Errors: flows.RefreshErrors{
			EngineNotReady: ErrEngineNotReady,
			RefreshInvalid: ErrRefreshInvalid,
		},
	})
	if err != nil {
		return nil, err
	}
	return bundleFromResult(result), nil
}

// findAccountRecord adapts the host directory to the flow-local account
// shape. Directory faults are wrapped into [ErrDirectoryUnavailable]; a
// missing account stays (nil, nil).
func (e *Engine) findAccountRecord(ctx context.Context, email string) (*flows.AccountRecord, error) {
	account, err := e.directory.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	if account == nil {
		return nil, nil
	}
	return &flows.AccountRecord{
		ID:           account.ID,
		Email:        account.Email,
		FirstName:    account.FirstName,
		LastName:     account.LastName,
		PasswordHash: account.PasswordHash,
		Role:         account.Role,
		Enabled:      account.Enabled,
	}, nil
}

func (e *Engine) issuePairResult(subject, role string) (*flows.TokenResult, error) {
	pair, err := e.issuer.IssuePair(subject, role)
	if err != nil {
		return nil, err
	}
	return &flows.TokenResult{
		AccessToken:     pair.Access,
		RefreshToken:    pair.Refresh,
		AccessExpiresAt: pair.AccessExpiresAt,
	}, nil
}

func (e *Engine) blacklistTokenID(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	inserted, err := e.replay.Blacklist(ctx, tokenID, ttl)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrReplayGuardUnavailable, err)
	}
	return inserted, nil
}

func (e *Engine) flowMetricInc(id int) {
	e.metricInc(MetricID(id))
}

func bundleFromResult(result *flows.TokenResult) *TokenBundle {
	return &TokenBundle{
		TokenType:    TokenTypeBearer,
		ExpiresAt:    result.AccessExpiresAt.UnixMilli(),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}
}
