package goEnroll

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.SigningMethod = "hs256"
	cfg.Token.PrivateKey = []byte("test-secret")
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "missing key",
			mutate:  func(c *Config) { c.Token.PrivateKey = nil },
			wantMsg: "PrivateKey",
		},
		{
			name:    "unknown signing method",
			mutate:  func(c *Config) { c.Token.SigningMethod = "rs256" },
			wantMsg: "signing method",
		},
		{
			name:    "refresh not longer than access",
			mutate:  func(c *Config) { c.Token.RefreshTTL = c.Token.AccessTTL },
			wantMsg: "RefreshTTL",
		},
		{
			name:    "zero access ttl",
			mutate:  func(c *Config) { c.Token.AccessTTL = 0 },
			wantMsg: "AccessTTL",
		},
		{
			name:    "zero confirmation ttl",
			mutate:  func(c *Config) { c.Confirmation.TTL = 0 },
			wantMsg: "Confirmation TTL",
		},
		{
			name:    "negative retention grace",
			mutate:  func(c *Config) { c.Confirmation.RetentionGrace = -time.Second },
			wantMsg: "RetentionGrace",
		},
		{
			name:    "empty default role",
			mutate:  func(c *Config) { c.Registration.DefaultRole = "" },
			wantMsg: "DefaultRole",
		},
		{
			name:    "weak argon2 memory",
			mutate:  func(c *Config) { c.Password.Memory = 1024 },
			wantMsg: "Memory",
		},
		{
			name:    "short salt",
			mutate:  func(c *Config) { c.Password.SaltLength = 8 },
			wantMsg: "SaltLength",
		},
		{
			name: "audit enabled without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantMsg: "BufferSize",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestCloneConfigIsolatesKeys(t *testing.T) {
	cfg := validConfig()
	clone := cloneConfig(cfg)

	clone.Token.PrivateKey[0] ^= 0xFF
	if cfg.Token.PrivateKey[0] == clone.Token.PrivateKey[0] {
		t.Fatal("expected cloned key to be an independent copy")
	}
}

func TestBuilderClonesConfig(t *testing.T) {
	dir := newMockDirectory()
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	cfg := validConfig()
	engine, err := New().WithConfig(cfg).WithRedis(rdb).WithDirectory(dir).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	// Mutating the caller's copy after Build must not affect the engine.
	cfg.Token.PrivateKey[0] ^= 0xFF
	cfg.Registration.DefaultRole = "ADMIN"

	tokenStr := registerTestAccount(t, engine, "ada@example.com")
	if tokenStr == "" {
		t.Fatal("expected confirmation token")
	}
	account, _ := dir.get("ada@example.com")
	if account.Role != "USER" {
		t.Fatalf("expected role USER, got %s", account.Role)
	}
}
