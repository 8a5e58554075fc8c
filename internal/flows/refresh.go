package flows

import (
	"context"
	"time"

	"github.com/enrollkit/goEnroll/token"
)

// RefreshMetrics carries metric IDs needed by the refresh flow.
type RefreshMetrics struct {
	RefreshSuccess int
	RefreshFailure int
	ReplayDetected int
}

// RefreshEvents carries audit event names used by the refresh flow.
type RefreshEvents struct {
	RefreshSuccess        string
	RefreshInvalid        string
	RefreshReplayDetected string
}

// RefreshErrors carries host-level sentinel errors used by the refresh flow.
type RefreshErrors struct {
	EngineNotReady error
	RefreshInvalid error
}

// RefreshDeps captures refresh dependencies.
type RefreshDeps struct {
	Now func() time.Time

	ExtractClaims func(string) (*token.Claims, error)
	IsExpired     func(*token.Claims, time.Time) bool

	FindAccount func(context.Context, string) (*AccountRecord, error)
	Blacklist   func(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
	IssuePair   func(subject, role string) (*TokenResult, error)

	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, accountID, email string, cause error, meta func() map[string]string)

	Metrics RefreshMetrics
	Events  RefreshEvents
	Errors  RefreshErrors
}

// RunRefresh rotates a refresh token into a fresh pair. Every rejection
// surfaces as the same generic error; the audit event carries the precise
// reason. Blacklisting the token ID is the replay check: the insert reports
// whether this caller was first, so two concurrent rotations of the same
// token resolve to exactly one success.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) (*TokenResult, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if deps.ExtractClaims == nil ||
		deps.IsExpired == nil ||
		deps.FindAccount == nil ||
		deps.Blacklist == nil ||
		deps.IssuePair == nil {
		return nil, deps.Errors.EngineNotReady
	}

	claims, err := deps.ExtractClaims(refreshToken)
	if err != nil {
		deps.MetricInc(deps.Metrics.RefreshFailure)
		deps.EmitAudit(ctx, deps.Events.RefreshInvalid, false, "", "", deps.Errors.RefreshInvalid, func() map[string]string {
			return map[string]string{
				"reason": "token_unverifiable",
			}
		})
		return nil, deps.Errors.RefreshInvalid
	}

	if claims.Kind != token.KindRefresh {
		deps.MetricInc(deps.Metrics.RefreshFailure)
		deps.EmitAudit(ctx, deps.Events.RefreshInvalid, false, "", claims.Subject, deps.Errors.RefreshInvalid, func() map[string]string {
			return map[string]string{
				"reason": "wrong_kind",
			}
		})
		return nil, deps.Errors.RefreshInvalid
	}

	now := deps.Now()
	if deps.IsExpired(claims, now) {
		deps.MetricInc(deps.Metrics.RefreshFailure)
		deps.EmitAudit(ctx, deps.Events.RefreshInvalid, false, "", claims.Subject, deps.Errors.RefreshInvalid, func() map[string]string {
			return map[string]string{
				"reason": "token_expired",
			}
		})
		return nil, deps.Errors.RefreshInvalid
	}

	account, err := deps.FindAccount(ctx, claims.Subject)
	if err != nil {
		deps.MetricInc(deps.Metrics.RefreshFailure)
		deps.EmitAudit(ctx, deps.Events.RefreshInvalid, false, "", claims.Subject, err, func() map[string]string {
			return map[string]string{
				"reason": "directory_fault",
			}
		})
		return nil, err
	}
	if account == nil {
		deps.MetricInc(deps.Metrics.RefreshFailure)
		deps.EmitAudit(ctx, deps.Events.RefreshInvalid, false, "", claims.Subject, deps.Errors.RefreshInvalid, func() map[string]string {
			return map[string]string{
				"reason": "account_unknown",
			}
		})
		return nil, deps.Errors.RefreshInvalid
	}

	// Blacklist TTL covers the token's remaining life. After that the token
	// fails the expiry check above on its own.
	remaining := time.Second
	if claims.ExpiresAt != nil {
		remaining = claims.ExpiresAt.Time.Sub(now)
	}
	inserted, err := deps.Blacklist(ctx, claims.ID, remaining)
	if err != nil {
		deps.MetricInc(deps.Metrics.RefreshFailure)
		deps.EmitAudit(ctx, deps.Events.RefreshInvalid, false, account.ID, claims.Subject, err, func() map[string]string {
			return map[string]string{
				"reason": "replay_guard_fault",
			}
		})
		return nil, err
	}
	if !inserted {
		deps.MetricInc(deps.Metrics.ReplayDetected)
		deps.MetricInc(deps.Metrics.RefreshFailure)
		deps.EmitAudit(ctx, deps.Events.RefreshReplayDetected, false, account.ID, claims.Subject, deps.Errors.RefreshInvalid, func() map[string]string {
			return map[string]string{
				"token_id": claims.ID,
			}
		})
		return nil, deps.Errors.RefreshInvalid
	}

	result, err := deps.IssuePair(account.Email, account.Role)
	if err != nil {
		deps.MetricInc(deps.Metrics.RefreshFailure)
		deps.EmitAudit(ctx, deps.Events.RefreshInvalid, false, account.ID, claims.Subject, err, nil)
		return nil, err
	}

	deps.MetricInc(deps.Metrics.RefreshSuccess)
	deps.EmitAudit(ctx, deps.Events.RefreshSuccess, true, account.ID, claims.Subject, nil, nil)
	return result, nil
}
