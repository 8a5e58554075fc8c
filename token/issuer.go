package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind discriminates access tokens from refresh tokens. It is carried as a
// dedicated claim and compared by value, never against ad hoc string
// literals at call sites.
type Kind string

const (
	// KindAccess marks a short-lived token presented on ordinary requests.
	KindAccess Kind = "access"
	// KindRefresh marks the longer-lived token exchanged for a new pair.
	KindRefresh Kind = "refresh"
)

// Claims is the signed token payload. Subject is the account identifier,
// ID the per-token jti used as the replay-prevention key.
type Claims struct {
	Role string `json:"role,omitempty"`
	Kind Kind   `json:"kind"`
	jwt.RegisteredClaims
}

// Pair is one freshly minted access/refresh token pair. The two tokens share
// subject and role but carry distinct jti values, kinds, and expiries.
type Pair struct {
	Access          string
	Refresh         string
	AccessExpiresAt time.Time
}

// IssuerConfig configures token lifetimes. RefreshTTL must be strictly
// longer than AccessTTL.
type IssuerConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now overrides the clock; nil means time.Now. Tests use it to issue
	// tokens at a fixed instant.
	Now func() time.Time
}

// Issuer mints and inspects token pairs through a [Signer]. Issuance is
// stateless: replay tracking is the ReplayGuard's job, which keeps the
// cryptographic core testable without a datastore.
type Issuer struct {
	signer     *Signer
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer validates lifetimes and returns a ready Issuer.
func NewIssuer(signer *Signer, cfg IssuerConfig) (*Issuer, error) {
	if signer == nil {
		return nil, errors.New("signer required")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("access TTL must be positive")
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return nil, errors.New("refresh TTL must exceed access TTL")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Issuer{
		signer:     signer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        now,
	}, nil
}

// IssuePair mints and signs an access/refresh pair for the given subject.
func (i *Issuer) IssuePair(subject, role string) (*Pair, error) {
	issuedAt := i.now()
	accessExpiry := issuedAt.Add(i.accessTTL)

	access, err := i.signer.Sign(i.newClaims(subject, role, KindAccess, issuedAt, accessExpiry))
	if err != nil {
		return nil, err
	}

	refresh, err := i.signer.Sign(i.newClaims(subject, role, KindRefresh, issuedAt, issuedAt.Add(i.refreshTTL)))
	if err != nil {
		return nil, err
	}

	return &Pair{
		Access:          access,
		Refresh:         refresh,
		AccessExpiresAt: accessExpiry,
	}, nil
}

// ExtractClaims verifies signature and structure and returns the claims.
// Fails with [ErrTokenMalformed] or [ErrSignatureInvalid]; expiry is not
// evaluated here.
func (i *Issuer) ExtractClaims(tokenStr string) (*Claims, error) {
	return i.signer.Verify(tokenStr)
}

// IsExpired reports whether claims have expired at the given instant.
// Claims without an expiry are treated as expired.
func (i *Issuer) IsExpired(claims *Claims, now time.Time) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return !now.Before(claims.ExpiresAt.Time)
}

func (i *Issuer) newClaims(subject, role string, kind Kind, issuedAt, expiresAt time.Time) *Claims {
	return &Claims{
		Role: role,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
}
