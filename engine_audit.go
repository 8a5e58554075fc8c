package goEnroll

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventRegistrationSuccess   = "registration_success"
	auditEventRegistrationFailure   = "registration_failure"
	auditEventConfirmationIssued    = "confirmation_issued"
	auditEventConfirmationSuccess   = "confirmation_success"
	auditEventConfirmationFailure   = "confirmation_failure"
	auditEventLoginSuccess          = "login_success"
	auditEventLoginFailure          = "login_failure"
	auditEventRefreshSuccess        = "refresh_success"
	auditEventRefreshInvalid        = "refresh_invalid"
	auditEventRefreshReplayDetected = "refresh_replay_detected"
	auditEventMailDispatchFailed    = "mail_dispatch_failed"
)

// AuditErrorCode is the stable error identifier carried on audit events.
type AuditErrorCode string

const (
	auditErrEmailInvalid       AuditErrorCode = "email_invalid"
	auditErrTokenUnknown       AuditErrorCode = "token_unknown"
	auditErrAlreadyConfirmed   AuditErrorCode = "already_confirmed"
	auditErrTokenExpired       AuditErrorCode = "token_expired"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrRefreshInvalid     AuditErrorCode = "refresh_invalid"
	auditErrAccountUnknown     AuditErrorCode = "account_unknown"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

// flowEmitAudit is the audit hook handed to flow functions.
func (e *Engine) flowEmitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	email string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrEmailInvalid):
		return auditErrEmailInvalid
	case errors.Is(err, ErrTokenUnknown):
		return auditErrTokenUnknown
	case errors.Is(err, ErrAlreadyConfirmed):
		return auditErrAlreadyConfirmed
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrRefreshInvalid):
		return auditErrRefreshInvalid
	case errors.Is(err, ErrAccountUnknown):
		return auditErrAccountUnknown
	case errors.Is(err, ErrConfirmationUnavailable),
		errors.Is(err, ErrReplayGuardUnavailable),
		errors.Is(err, ErrDirectoryUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
