package goEnroll

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/enrollkit/goEnroll/internal/audit"
	"github.com/enrollkit/goEnroll/internal/stores"
	"github.com/enrollkit/goEnroll/password"
	"github.com/enrollkit/goEnroll/token"
)

// Builder assembles an [Engine]. Collect configuration and collaborators with
// the With* methods, then call [Builder.Build] exactly once.
type Builder struct {
	config Config
	redis  *redis.Client

	directory AccountDirectory
	hasher    PasswordHasher
	validator EmailValidator
	mailer    EmailDispatcher
	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the confirmation store and replay
// guard. Required.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithDirectory sets the host account store. Required.
func (b *Builder) WithDirectory(d AccountDirectory) *Builder {
	b.directory = d
	return b
}

// WithPasswordHasher overrides the default Argon2id hasher.
func (b *Builder) WithPasswordHasher(h PasswordHasher) *Builder {
	b.hasher = h
	return b
}

// WithEmailValidator overrides the default address validator.
func (b *Builder) WithEmailValidator(v EmailValidator) *Builder {
	b.validator = v
	return b
}

// WithMailer sets the activation-mail dispatcher. When unset, no mail is
// sent and Register still succeeds.
func (b *Builder) WithMailer(m EmailDispatcher) *Builder {
	b.mailer = m
	return b
}

// WithAuditSink sets the audit event consumer. Events are only dispatched
// when Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires all components and returns a
// ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.directory == nil {
		return nil, errors.New("account directory required")
	}

	signer, err := token.NewSigner(token.SignerConfig{
		SigningMethod: token.SigningMethod(cfg.Token.SigningMethod),
		PrivateKey:    cloneBytes(cfg.Token.PrivateKey),
		PublicKey:     cloneBytes(cfg.Token.PublicKey),
		Issuer:        cfg.Token.Issuer,
	})
	if err != nil {
		return nil, err
	}

	issuer, err := token.NewIssuer(signer, token.IssuerConfig{
		AccessTTL:  cfg.Token.AccessTTL,
		RefreshTTL: cfg.Token.RefreshTTL,
	})
	if err != nil {
		return nil, err
	}

	hasher := b.hasher
	if hasher == nil {
		ph, err := password.NewHasher(password.Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		})
		if err != nil {
			return nil, err
		}
		hasher = ph
	}

	validator := b.validator
	if validator == nil {
		validator = defaultEmailValidator{}
	}

	engine := &Engine{
		config:        cfg,
		issuer:        issuer,
		confirmations: stores.NewConfirmationStore(b.redis, cfg.Confirmation.RedisPrefix),
		replay:        stores.NewReplayGuard(b.redis, cfg.Replay.RedisPrefix),
		directory:     b.directory,
		hasher:        hasher,
		validator:     validator,
		mailer:        b.mailer,
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}

	b.built = true

	return engine, nil
}
