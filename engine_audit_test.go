package goEnroll

import (
	"context"
	"testing"
)

func newAuditedEngine(t *testing.T, dir AccountDirectory) (*Engine, *ChannelSink, func()) {
	t.Helper()

	mr, rdb := newTestRedis(t)

	sink := NewChannelSink(64)
	cfg := testConfig()
	cfg.Audit.Enabled = true

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithDirectory(dir).
		WithAuditSink(sink).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return engine, sink, func() {
		engine.Close()
		rdb.Close()
		mr.Close()
	}
}

func drainEvents(sink *ChannelSink) []AuditEvent {
	var events []AuditEvent
	for {
		select {
		case event := <-sink.Events():
			events = append(events, event)
		default:
			return events
		}
	}
}

func findEvent(events []AuditEvent, eventType string) *AuditEvent {
	for i := range events {
		if events[i].EventType == eventType {
			return &events[i]
		}
	}
	return nil
}

func TestAuditTrailForFullLifecycle(t *testing.T) {
	engine, sink, done := newAuditedEngine(t, newMockDirectory())
	ctx := context.Background()

	tokenStr, err := engine.Register(ctx, RegistrationRequest{Email: "ada@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	bundle, err := engine.ConfirmToken(ctx, tokenStr)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := engine.Login(ctx, "ada@example.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := engine.Refresh(ctx, bundle.RefreshToken); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// Close flushes every buffered event before returning.
	done()
	events := drainEvents(sink)

	for _, want := range []string{
		auditEventRegistrationSuccess,
		auditEventConfirmationIssued,
		auditEventConfirmationSuccess,
		auditEventLoginSuccess,
		auditEventRefreshSuccess,
	} {
		if findEvent(events, want) == nil {
			t.Fatalf("missing audit event %s", want)
		}
	}

	success := findEvent(events, auditEventLoginSuccess)
	if !success.Success || success.Email != "ada@example.com" {
		t.Fatalf("unexpected login event %+v", success)
	}
}

func TestAuditLoginFailureCarriesClientIP(t *testing.T) {
	engine, sink, done := newAuditedEngine(t, newMockDirectory())

	ctx := WithClientIP(context.Background(), "203.0.113.9")
	if _, err := engine.Login(ctx, "ghost@example.com", "pw"); err == nil {
		t.Fatal("expected login failure")
	}

	done()
	events := drainEvents(sink)

	failure := findEvent(events, auditEventLoginFailure)
	if failure == nil {
		t.Fatal("missing login failure event")
	}
	if failure.Success {
		t.Fatal("expected failure event")
	}
	if failure.IP != "203.0.113.9" {
		t.Fatalf("unexpected IP %q", failure.IP)
	}
	if failure.Error != string(auditErrInvalidCredentials) {
		t.Fatalf("unexpected error code %q", failure.Error)
	}
}

func TestAuditReplayEventCarriesTokenID(t *testing.T) {
	engine, sink, done := newAuditedEngine(t, newMockDirectory())
	ctx := context.Background()

	bundle := loginTestAccount(t, engine, "ada@example.com")

	if _, err := engine.Refresh(ctx, bundle.RefreshToken); err != nil {
		t.Fatalf("first use: %v", err)
	}
	if _, err := engine.Refresh(ctx, bundle.RefreshToken); err == nil {
		t.Fatal("expected replay rejection")
	}

	done()
	events := drainEvents(sink)

	replay := findEvent(events, auditEventRefreshReplayDetected)
	if replay == nil {
		t.Fatal("missing replay event")
	}
	if replay.Metadata["token_id"] == "" {
		t.Fatal("expected token_id metadata on replay event")
	}
}

func TestMetricsCountLifecycle(t *testing.T) {
	engine, _, done := newAuditedEngine(t, newMockDirectory())
	defer done()
	ctx := context.Background()

	tokenStr, err := engine.Register(ctx, RegistrationRequest{Email: "ada@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := engine.ConfirmToken(ctx, tokenStr); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := engine.Login(ctx, "ada@example.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := engine.Login(ctx, "ada@example.com", "wrong"); err == nil {
		t.Fatal("expected login failure")
	}

	snap := engine.MetricsSnapshot()
	checks := map[MetricID]uint64{
		MetricRegistrationSuccess: 1,
		MetricConfirmationIssued:  1,
		MetricConfirmationSuccess: 1,
		MetricLoginSuccess:        1,
		MetricLoginFailure:        1,
	}
	for id, want := range checks {
		if got := snap.Counters[id]; got != want {
			t.Fatalf("metric %d: got %d, want %d", id, got, want)
		}
	}
}
