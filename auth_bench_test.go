package goEnroll

import (
	"context"
	"testing"
)

func benchConfig() Config {
	cfg := testConfig()
	// Keep argon2 cheap so the benchmark measures the engine, not the hash.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	return cfg
}

func BenchmarkLogin(b *testing.B) {
	dir := newMockDirectory()
	mr, rdb := newTestRedis(b)
	defer mr.Close()

	engine, err := New().WithConfig(benchConfig()).WithRedis(rdb).WithDirectory(dir).Build()
	if err != nil {
		b.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()
	ctx := context.Background()

	tokenStr, err := engine.Register(ctx, RegistrationRequest{Email: "bench@example.com", Password: "bench-password"})
	if err != nil {
		b.Fatalf("register: %v", err)
	}
	if _, err := engine.ConfirmToken(ctx, tokenStr); err != nil {
		b.Fatalf("confirm: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Login(ctx, "bench@example.com", "bench-password"); err != nil {
			b.Fatalf("login: %v", err)
		}
	}
}

func BenchmarkRefresh(b *testing.B) {
	dir := newMockDirectory()
	mr, rdb := newTestRedis(b)
	defer mr.Close()

	engine, err := New().WithConfig(benchConfig()).WithRedis(rdb).WithDirectory(dir).Build()
	if err != nil {
		b.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()
	ctx := context.Background()

	tokenStr, err := engine.Register(ctx, RegistrationRequest{Email: "bench@example.com", Password: "bench-password"})
	if err != nil {
		b.Fatalf("register: %v", err)
	}
	bundle, err := engine.ConfirmToken(ctx, tokenStr)
	if err != nil {
		b.Fatalf("confirm: %v", err)
	}

	refresh := bundle.RefreshToken
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rotated, err := engine.Refresh(ctx, refresh)
		if err != nil {
			b.Fatalf("refresh: %v", err)
		}
		refresh = rotated.RefreshToken
	}
}
