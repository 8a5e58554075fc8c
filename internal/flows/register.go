package flows

import (
	"context"
	"strings"
	"time"
)

// RegisterRequest is the flow-local registration input shape.
type RegisterRequest struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// RegisterMetrics carries metric IDs needed by the registration flows.
type RegisterMetrics struct {
	RegistrationSuccess int
	RegistrationFailure int
	ConfirmationIssued  int
	MailDispatchFailure int
}

// RegisterEvents carries audit event names used by the registration flows.
type RegisterEvents struct {
	RegistrationSuccess string
	RegistrationFailure string
	ConfirmationIssued  string
	MailDispatchFailed  string
}

// RegisterErrors carries host-level sentinel errors used by the registration
// flows.
type RegisterErrors struct {
	EngineNotReady error
	EmailInvalid   error
	AccountUnknown error
}

// RegisterDeps captures registration and confirmation-renewal dependencies.
type RegisterDeps struct {
	ConfirmationTTL time.Duration
	RetentionGrace  time.Duration
	DefaultRole     string

	Now func() time.Time

	ValidateEmail func(string) bool
	HashPassword  func(string) (string, error)

	FindAccount func(context.Context, string) (*AccountRecord, error)
	SaveAccount func(context.Context, *AccountRecord) (*AccountRecord, error)

	NewConfirmationToken  func() (string, error)
	HashConfirmationToken func(string) string
	SaveConfirmation      func(ctx context.Context, tokenHash, accountID, email string, createdAt, expiresAt int64, ttl time.Duration) error

	DispatchActivationMail func(ctx context.Context, account *AccountRecord, tokenStr string, expiresAt time.Time) error

	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, accountID, email string, cause error, meta func() map[string]string)

	Metrics RegisterMetrics
	Events  RegisterEvents
	Errors  RegisterErrors
}

// RunRegister executes the registration flow and returns the raw confirmation
// token. An existing account is reused and simply receives a fresh token, so
// registering twice acts as a resend.
func RunRegister(ctx context.Context, req RegisterRequest, deps RegisterDeps) (string, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if deps.ValidateEmail == nil ||
		deps.HashPassword == nil ||
		deps.FindAccount == nil ||
		deps.SaveAccount == nil ||
		deps.NewConfirmationToken == nil ||
		deps.HashConfirmationToken == nil ||
		deps.SaveConfirmation == nil {
		return "", deps.Errors.EngineNotReady
	}

	email := NormalizeEmail(req.Email)
	if !deps.ValidateEmail(email) {
		deps.MetricInc(deps.Metrics.RegistrationFailure)
		deps.EmitAudit(ctx, deps.Events.RegistrationFailure, false, "", email, deps.Errors.EmailInvalid, func() map[string]string {
			return map[string]string{
				"reason": "invalid_email",
			}
		})
		return "", deps.Errors.EmailInvalid
	}

	account, err := deps.FindAccount(ctx, email)
	if err != nil {
		deps.MetricInc(deps.Metrics.RegistrationFailure)
		deps.EmitAudit(ctx, deps.Events.RegistrationFailure, false, "", email, err, func() map[string]string {
			return map[string]string{
				"reason": "directory_fault",
			}
		})
		return "", err
	}

	if account == nil {
		hash, err := deps.HashPassword(req.Password)
		if err != nil {
			deps.MetricInc(deps.Metrics.RegistrationFailure)
			deps.EmitAudit(ctx, deps.Events.RegistrationFailure, false, "", email, err, func() map[string]string {
				return map[string]string{
					"reason": "password_hash_failed",
				}
			})
			return "", err
		}

		account, err = deps.SaveAccount(ctx, &AccountRecord{
			Email:        email,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			PasswordHash: hash,
			Role:         deps.DefaultRole,
			Enabled:      false,
		})
		if err != nil {
			deps.MetricInc(deps.Metrics.RegistrationFailure)
			deps.EmitAudit(ctx, deps.Events.RegistrationFailure, false, "", email, err, func() map[string]string {
				return map[string]string{
					"reason": "directory_fault",
				}
			})
			return "", err
		}
	}

	tokenStr, err := runIssueConfirmation(ctx, account, deps)
	if err != nil {
		deps.MetricInc(deps.Metrics.RegistrationFailure)
		deps.EmitAudit(ctx, deps.Events.RegistrationFailure, false, account.ID, email, err, nil)
		return "", err
	}

	deps.MetricInc(deps.Metrics.RegistrationSuccess)
	deps.EmitAudit(ctx, deps.Events.RegistrationSuccess, true, account.ID, email, nil, nil)
	return tokenStr, nil
}

// RunRenewConfirmation re-issues a confirmation token for an already
// registered account.
func RunRenewConfirmation(ctx context.Context, email string, deps RegisterDeps) (string, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if deps.FindAccount == nil ||
		deps.NewConfirmationToken == nil ||
		deps.HashConfirmationToken == nil ||
		deps.SaveConfirmation == nil {
		return "", deps.Errors.EngineNotReady
	}

	email = NormalizeEmail(email)

	account, err := deps.FindAccount(ctx, email)
	if err != nil {
		deps.MetricInc(deps.Metrics.RegistrationFailure)
		deps.EmitAudit(ctx, deps.Events.RegistrationFailure, false, "", email, err, func() map[string]string {
			return map[string]string{
				"reason": "directory_fault",
			}
		})
		return "", err
	}
	if account == nil {
		deps.MetricInc(deps.Metrics.RegistrationFailure)
		deps.EmitAudit(ctx, deps.Events.RegistrationFailure, false, "", email, deps.Errors.AccountUnknown, func() map[string]string {
			return map[string]string{
				"reason": "account_not_found",
			}
		})
		return "", deps.Errors.AccountUnknown
	}

	tokenStr, err := runIssueConfirmation(ctx, account, deps)
	if err != nil {
		deps.MetricInc(deps.Metrics.RegistrationFailure)
		deps.EmitAudit(ctx, deps.Events.RegistrationFailure, false, account.ID, email, err, nil)
		return "", err
	}

	return tokenStr, nil
}

// runIssueConfirmation mints a confirmation token, persists its digest and
// dispatches the activation mail. An earlier token for the same account stays
// valid until it expires or is consumed.
func runIssueConfirmation(ctx context.Context, account *AccountRecord, deps RegisterDeps) (string, error) {
	tokenStr, err := deps.NewConfirmationToken()
	if err != nil {
		return "", err
	}

	now := deps.Now()
	expiresAt := now.Add(deps.ConfirmationTTL)
	ttl := deps.ConfirmationTTL + deps.RetentionGrace

	err = deps.SaveConfirmation(ctx,
		deps.HashConfirmationToken(tokenStr),
		account.ID,
		account.Email,
		now.Unix(),
		expiresAt.Unix(),
		ttl,
	)
	if err != nil {
		return "", err
	}

	deps.MetricInc(deps.Metrics.ConfirmationIssued)
	deps.EmitAudit(ctx, deps.Events.ConfirmationIssued, true, account.ID, account.Email, nil, nil)

	// Mail delivery is best-effort. A dispatch failure is recorded but never
	// invalidates the registration.
	if deps.DispatchActivationMail != nil {
		if mailErr := deps.DispatchActivationMail(ctx, account, tokenStr, expiresAt); mailErr != nil {
			deps.MetricInc(deps.Metrics.MailDispatchFailure)
			deps.EmitAudit(ctx, deps.Events.MailDispatchFailed, false, account.ID, account.Email, mailErr, nil)
		}
	}

	return tokenStr, nil
}

// NormalizeEmail maps an address to its canonical directory form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
