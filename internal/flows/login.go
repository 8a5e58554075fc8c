package flows

import "context"

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess int
	LoginFailure int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess string
	LoginFailure string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	FindAccount    func(context.Context, string) (*AccountRecord, error)
	VerifyPassword func(plaintext, hash string) bool
	IssuePair      func(subject, role string) (*TokenResult, error)

	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, accountID, email string, cause error, meta func() map[string]string)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin verifies credentials and issues a fresh token pair. An unknown
// email and a wrong password return the identical credentials error, so a
// caller cannot probe which addresses exist.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (*TokenResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if deps.FindAccount == nil ||
		deps.VerifyPassword == nil ||
		deps.IssuePair == nil {
		return nil, deps.Errors.EngineNotReady
	}

	email = NormalizeEmail(email)

	account, err := deps.FindAccount(ctx, email)
	if err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", email, err, func() map[string]string {
			return map[string]string{
				"reason": "directory_fault",
			}
		})
		return nil, err
	}
	if account == nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", email, deps.Errors.InvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "account_not_found",
			}
		})
		return nil, deps.Errors.InvalidCredentials
	}

	if !deps.VerifyPassword(password, account.PasswordHash) {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, account.ID, email, deps.Errors.InvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "password_mismatch",
			}
		})
		return nil, deps.Errors.InvalidCredentials
	}
	password = ""

	result, err := deps.IssuePair(account.Email, account.Role)
	if err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, account.ID, email, err, nil)
		return nil, err
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, account.ID, email, nil, nil)
	return result, nil
}
