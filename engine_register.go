package goEnroll

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/enrollkit/goEnroll/internal"
	"github.com/enrollkit/goEnroll/internal/flows"
	"github.com/enrollkit/goEnroll/internal/stores"
	"github.com/enrollkit/goEnroll/mailer"
)

// Register validates the request, creates a disabled account (or reuses an
// existing one) and issues a single-use confirmation token. The raw token is
// returned to the caller and, when a mailer is configured, delivered in the
// activation mail. Registering an email twice acts as a confirmation resend.
func (e *Engine) Register(ctx context.Context, req RegistrationRequest) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}

	return flows.RunRegister(ctx, flows.RegisterRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	}, e.registerDeps())
}

// RenewConfirmation issues a fresh confirmation token for an account that
// registered earlier but never confirmed. Unknown addresses return
// [ErrAccountUnknown].
func (e *Engine) RenewConfirmation(ctx context.Context, email string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}

	return flows.RunRenewConfirmation(ctx, email, e.registerDeps())
}

func (e *Engine) registerDeps() flows.RegisterDeps {
	deps := flows.RegisterDeps{
		ConfirmationTTL: e.config.Confirmation.TTL,
		RetentionGrace:  e.config.Confirmation.RetentionGrace,
		DefaultRole:     e.config.Registration.DefaultRole,

		ValidateEmail: e.validator.IsValid,
		HashPassword:  e.hasher.Hash,

		FindAccount: e.findAccountRecord,
		SaveAccount: e.saveAccountRecord,

		NewConfirmationToken:  internal.NewConfirmationToken,
		HashConfirmationToken: internal.HashConfirmationToken,
		SaveConfirmation:      e.saveConfirmation,

		MetricInc: e.flowMetricInc,
		EmitAudit: e.flowEmitAudit,

		Metrics: flows.RegisterMetrics{
			RegistrationSuccess: int(MetricRegistrationSuccess),
			RegistrationFailure: int(MetricRegistrationFailure),
			ConfirmationIssued:  int(MetricConfirmationIssued),
			MailDispatchFailure: int(MetricMailDispatchFailure),
		},
		Events: flows.RegisterEvents{
			RegistrationSuccess: auditEventRegistrationSuccess,
			RegistrationFailure: auditEventRegistrationFailure,
			ConfirmationIssued:  auditEventConfirmationIssued,
			MailDispatchFailed:  auditEventMailDispatchFailed,
		},
		Errors: flows.RegisterErrors{
			EngineNotReady: ErrEngineNotReady,
			EmailInvalid:   ErrEmailInvalid,
			AccountUnknown: ErrAccountUnknown,
		},
	}

	if e.mailer != nil {
		deps.DispatchActivationMail = e.dispatchActivationMail
	}

	return deps
}

func (e *Engine) saveAccountRecord(ctx context.Context, record *flows.AccountRecord) (*flows.AccountRecord, error) {
	saved, err := e.directory.Save(ctx, Account{
		Email:        record.Email,
		FirstName:    record.FirstName,
		LastName:     record.LastName,
		PasswordHash: record.PasswordHash,
		Role:         record.Role,
		Enabled:      record.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	return &flows.AccountRecord{
		ID:           saved.ID,
		Email:        saved.Email,
		FirstName:    saved.FirstName,
		LastName:     saved.LastName,
		PasswordHash: saved.PasswordHash,
		Role:         saved.Role,
		Enabled:      saved.Enabled,
	}, nil
}

func (e *Engine) saveConfirmation(
	ctx context.Context,
	tokenHash, accountID, email string,
	createdAt, expiresAt int64,
	ttl time.Duration,
) error {
	err := e.confirmations.Save(ctx, tokenHash, &stores.ConfirmationRecord{
		AccountID: accountID,
		Email:     email,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}, ttl)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfirmationUnavailable, err)
	}
	return nil
}

func (e *Engine) dispatchActivationMail(
	ctx context.Context,
	account *flows.AccountRecord,
	tokenStr string,
	expiresAt time.Time,
) error {
	link := ""
	if base := e.config.Registration.ActivationBaseURL; base != "" {
		link = base + "/confirm?token=" + url.QueryEscape(tokenStr)
	}

	body, err := mailer.ActivationBody(mailer.ActivationData{
		FirstName: account.FirstName,
		Link:      link,
		Token:     tokenStr,
		ValidFor:  e.config.Confirmation.TTL,
	})
	if err != nil {
		return err
	}

	return e.mailer.Send(ctx, account.Email, mailer.ActivationSubject, body)
}
