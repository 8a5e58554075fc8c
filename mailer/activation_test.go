package mailer

import (
	"strings"
	"testing"
	"time"
)

func TestActivationBodyWithLink(t *testing.T) {
	body, err := ActivationBody(ActivationData{
		FirstName: "Ada",
		Link:      "https://example.com/confirm?token=abc",
		ValidFor:  15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.Contains(body, "Hi Ada,") {
		t.Fatalf("expected greeting with first name, got %q", body)
	}
	if !strings.Contains(body, `href="https://example.com/confirm?token=abc"`) {
		t.Fatalf("expected activation link, got %q", body)
	}
	if !strings.Contains(body, "expire in 15 minutes") {
		t.Fatalf("expected expiry text, got %q", body)
	}
}

func TestActivationBodyWithoutLink(t *testing.T) {
	body, err := ActivationBody(ActivationData{
		Token:    "raw-code",
		ValidFor: 2 * time.Hour,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.Contains(body, "Hi there,") {
		t.Fatalf("expected fallback greeting, got %q", body)
	}
	if !strings.Contains(body, "raw-code") {
		t.Fatalf("expected raw token fallback, got %q", body)
	}
	if !strings.Contains(body, "expire in 2 hours") {
		t.Fatalf("expected expiry text, got %q", body)
	}
}

func TestActivationBodyEscapesName(t *testing.T) {
	body, err := ActivationBody(ActivationData{
		FirstName: `<script>x</script>`,
		Link:      "https://example.com/confirm",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(body, "<script>") {
		t.Fatal("expected html-escaped first name")
	}
}
