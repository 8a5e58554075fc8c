package flows

import (
	"context"
	"time"
)

// ConfirmMetrics carries metric IDs needed by the confirmation flow.
type ConfirmMetrics struct {
	ConfirmationSuccess int
	ConfirmationFailure int
}

// ConfirmEvents carries audit event names used by the confirmation flow.
type ConfirmEvents struct {
	ConfirmationSuccess string
	ConfirmationFailure string
}

// ConfirmErrors carries host-level sentinel errors used by the confirmation
// flow.
type ConfirmErrors struct {
	EngineNotReady error
	TokenUnknown   error
}

// ConfirmDeps captures confirmation dependencies.
type ConfirmDeps struct {
	Now func() time.Time

	CheckToken            func(string) error
	HashConfirmationToken func(string) string
	ConsumeConfirmation   func(context.Context, string) (*ConfirmationRecord, error)

	FindAccount   func(context.Context, string) (*AccountRecord, error)
	EnableAccount func(context.Context, string) error

	IssuePair func(subject, role string) (*TokenResult, error)

	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, accountID, email string, cause error, meta func() map[string]string)

	Metrics ConfirmMetrics
	Events  ConfirmEvents
	Errors  ConfirmErrors
}

// RunConfirm consumes a confirmation token exactly once, enables the account
// and issues a fresh token pair.
func RunConfirm(ctx context.Context, tokenStr string, deps ConfirmDeps) (*TokenResult, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if deps.CheckToken == nil ||
		deps.HashConfirmationToken == nil ||
		deps.ConsumeConfirmation == nil ||
		deps.FindAccount == nil ||
		deps.EnableAccount == nil ||
		deps.IssuePair == nil {
		return nil, deps.Errors.EngineNotReady
	}

	// Reject strings that cannot be an issued token before any store round
	// trip. Shape failures read the same as unknown tokens.
	if err := deps.CheckToken(tokenStr); err != nil {
		deps.MetricInc(deps.Metrics.ConfirmationFailure)
		deps.EmitAudit(ctx, deps.Events.ConfirmationFailure, false, "", "", deps.Errors.TokenUnknown, func() map[string]string {
			return map[string]string{
				"reason": "token_malformed",
			}
		})
		return nil, deps.Errors.TokenUnknown
	}

	record, err := deps.ConsumeConfirmation(ctx, deps.HashConfirmationToken(tokenStr))
	if err != nil {
		deps.MetricInc(deps.Metrics.ConfirmationFailure)
		deps.EmitAudit(ctx, deps.Events.ConfirmationFailure, false, "", "", err, func() map[string]string {
			return map[string]string{
				"reason": "consume_rejected",
			}
		})
		return nil, err
	}

	account, err := deps.FindAccount(ctx, record.Email)
	if err != nil {
		deps.MetricInc(deps.Metrics.ConfirmationFailure)
		deps.EmitAudit(ctx, deps.Events.ConfirmationFailure, false, record.AccountID, record.Email, err, func() map[string]string {
			return map[string]string{
				"reason": "directory_fault",
			}
		})
		return nil, err
	}
	if account == nil {
		deps.MetricInc(deps.Metrics.ConfirmationFailure)
		deps.EmitAudit(ctx, deps.Events.ConfirmationFailure, false, record.AccountID, record.Email, deps.Errors.TokenUnknown, func() map[string]string {
			return map[string]string{
				"reason": "account_missing",
			}
		})
		return nil, deps.Errors.TokenUnknown
	}

	if err := deps.EnableAccount(ctx, account.ID); err != nil {
		deps.MetricInc(deps.Metrics.ConfirmationFailure)
		deps.EmitAudit(ctx, deps.Events.ConfirmationFailure, false, account.ID, account.Email, err, func() map[string]string {
			return map[string]string{
				"reason": "enable_failed",
			}
		})
		return nil, err
	}

	result, err := deps.IssuePair(account.Email, account.Role)
	if err != nil {
		deps.MetricInc(deps.Metrics.ConfirmationFailure)
		deps.EmitAudit(ctx, deps.Events.ConfirmationFailure, false, account.ID, account.Email, err, nil)
		return nil, err
	}

	deps.MetricInc(deps.Metrics.ConfirmationSuccess)
	deps.EmitAudit(ctx, deps.Events.ConfirmationSuccess, true, account.ID, account.Email, nil, nil)
	return result, nil
}
