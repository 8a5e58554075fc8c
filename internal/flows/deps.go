package flows

import "time"

// AccountRecord is the flow-local account model shared by the registration,
// confirmation and login flows.
type AccountRecord struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         string
	Enabled      bool
}

// ConfirmationRecord is the flow-local view of a consumed confirmation token.
type ConfirmationRecord struct {
	AccountID string
	Email     string
}

// TokenResult is the flow-local token-pair response shape.
type TokenResult struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}
