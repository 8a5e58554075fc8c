package goEnroll

import "errors"

var (
	// ErrEmailInvalid rejects registration input whose email address does
	// not validate.
	ErrEmailInvalid = errors.New("email address is invalid")
	// ErrTokenUnknown is returned for confirmation tokens that are
	// malformed, never issued, or already gone.
	ErrTokenUnknown = errors.New("code is incorrect")
	// ErrAlreadyConfirmed is returned when a confirmation token is replayed
	// after a successful confirmation.
	ErrAlreadyConfirmed = errors.New("account is already confirmed")
	// ErrTokenExpired is returned when a confirmation token is presented
	// after its expiry instant.
	ErrTokenExpired = errors.New("confirmation token expired")

	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password. The two cases are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("the user credentials were incorrect")
	// ErrRefreshInvalid covers every refresh rejection: bad signature,
	// wrong token kind, expiry, and replay.
	ErrRefreshInvalid = errors.New("refresh token is invalid")
	// ErrAccountUnknown is returned by RenewConfirmation for addresses
	// without an account.
	ErrAccountUnknown = errors.New("account unknown")

	// ErrConfirmationUnavailable wraps confirmation-store faults.
	ErrConfirmationUnavailable = errors.New("confirmation store unavailable")
	// ErrReplayGuardUnavailable wraps replay-guard faults.
	ErrReplayGuardUnavailable = errors.New("replay guard unavailable")
	// ErrDirectoryUnavailable wraps account-directory faults.
	ErrDirectoryUnavailable = errors.New("account directory unavailable")

	// ErrEngineNotReady is returned by Engine methods before Build wired
	// all dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")
)
