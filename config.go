package goEnroll

import (
	"errors"
	"time"
)

// Config holds every tunable of the engine. Zero values are filled in by
// [New]; callers usually start from the defaults and override selectively
// through [Builder.WithConfig].
type Config struct {
	Token        TokenConfig
	Confirmation ConfirmationConfig
	Replay       ReplayConfig
	Registration RegistrationConfig
	Password     PasswordConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig configures JWT signing and pair lifetimes. RefreshTTL must be
// strictly longer than AccessTTL.
type TokenConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
}

/*
====================================
CONFIRMATION CONFIG
====================================
*/

// ConfirmationConfig configures the single-use confirmation token store.
// RetentionGrace keeps an expired record around so a late confirm attempt is
// reported as expired instead of unknown.
type ConfirmationConfig struct {
	TTL            time.Duration
	RetentionGrace time.Duration
	RedisPrefix    string
}

// ReplayConfig configures the refresh-token replay blacklist.
type ReplayConfig struct {
	RedisPrefix string
}

// RegistrationConfig configures account creation and the activation mail.
// ActivationBaseURL is prepended to the confirm path in the mail body; when
// empty, no link is rendered and the mail carries the raw token.
type RegistrationConfig struct {
	DefaultRole       string
	ActivationBaseURL string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds Argon2id parameters for the default hasher.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// AuditConfig configures the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig configures the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. Callers set key material
// and any overrides before handing it to the [Builder].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:     5 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "ed25519",
		},
		Confirmation: ConfirmationConfig{
			TTL:            15 * time.Minute,
			RetentionGrace: time.Hour,
			RedisPrefix:    "cnf",
		},
		Replay: ReplayConfig{
			RedisPrefix: "rjt",
		},
		Registration: RegistrationConfig{
			DefaultRole: "USER",
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks cross-field constraints. Build calls it; it is exported so
// hosts can validate configuration before wiring.
func (c *Config) Validate() error {
	// Token
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token RefreshTTL must be > 0")
	}
	if c.Token.RefreshTTL <= c.Token.AccessTTL {
		return errors.New("Token RefreshTTL must be greater than AccessTTL")
	}

	if c.Token.SigningMethod != "ed25519" && c.Token.SigningMethod != "hs256" {
		return errors.New("unsupported Token signing method")
	}
	if len(c.Token.PrivateKey) == 0 {
		return errors.New(c.Token.SigningMethod + " requires PrivateKey")
	}

	// Confirmation
	if c.Confirmation.TTL <= 0 {
		return errors.New("Confirmation TTL must be > 0")
	}
	if c.Confirmation.RetentionGrace < 0 {
		return errors.New("Confirmation RetentionGrace must be >= 0")
	}

	// Registration
	if c.Registration.DefaultRole == "" {
		return errors.New("Registration DefaultRole must not be empty")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	return nil
}
