package goEnroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/enrollkit/goEnroll/internal"
	"github.com/enrollkit/goEnroll/internal/flows"
	"github.com/enrollkit/goEnroll/internal/stores"
)

// ConfirmToken consumes a confirmation token exactly once, enables the
// account and returns a fresh token pair. Unknown and malformed tokens return
// [ErrTokenUnknown]; a replay of an already consumed token returns
// [ErrAlreadyConfirmed] and removes the record; a late attempt returns
// [ErrTokenExpired] and removes the record.
func (e *Engine) ConfirmToken(ctx context.Context, tokenStr string) (*TokenBundle, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	result, err := flows.RunConfirm(ctx, tokenStr, flows.ConfirmDeps{
		CheckToken:            internal.CheckConfirmationToken,
		HashConfirmationToken: internal.HashConfirmationToken,
		ConsumeConfirmation:   e.consumeConfirmation,

		FindAccount:   e.findAccountRecord,
		EnableAccount: e.enableAccount,

		IssuePair: e.issuePairResult,

		MetricInc: e.flowMetricInc,
		EmitAudit: e.flowEmitAudit,

		Metrics: flows.ConfirmMetrics{
			ConfirmationSuccess: int(MetricConfirmationSuccess),
			ConfirmationFailure: int(MetricConfirmationFailure),
		},
		Events: flows.ConfirmEvents{
			ConfirmationSuccess: auditEventConfirmationSuccess,
			ConfirmationFailure: auditEventConfirmationFailure,
		},
		Errors: flows.ConfirmErrors{
			EngineNotReady: ErrEngineNotReady,
			TokenUnknown:   ErrTokenUnknown,
		},
	})
	if err != nil {
		return nil, err
	}
	return bundleFromResult(result), nil
}

// consumeConfirmation runs the atomic consume and maps store sentinels onto
// the public error taxonomy.
func (e *Engine) consumeConfirmation(ctx context.Context, tokenHash string) (*flows.ConfirmationRecord, error) {
	record, err := e.confirmations.Consume(ctx, tokenHash)
	if err != nil {
		switch {
		case errors.Is(err, stores.ErrConfirmationNotFound):
			return nil, ErrTokenUnknown
		case errors.Is(err, stores.ErrConfirmationConsumed):
			return nil, ErrAlreadyConfirmed
		case errors.Is(err, stores.ErrConfirmationExpired):
			return nil, ErrTokenExpired
		default:
			return nil, fmt.Errorf("%w: %v", ErrConfirmationUnavailable, err)
		}
	}
	return &flows.ConfirmationRecord{
		AccountID: record.AccountID,
		Email:     record.Email,
	}, nil
}

func (e *Engine) enableAccount(ctx context.Context, accountID string) error {
	if err := e.directory.Enable(ctx, accountID); err != nil {
		return fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	return nil
}
