package stripe

import (
	"context"
	"testing"

	"github.com/artvinci/artvinci-go/pkg/config"
)

func TestNewClientValidatesKeyAgainstEnvironment(t *testing.T) {
	ctx := context.Background()

	if _, err := NewClient(ctx, config.StripeConfig{APIKey: "sk_test_123", Env: "test"}, nil); err != nil {
		t.Fatalf("test key in test env should pass: %v", err)
	}

	if _, err := NewClient(ctx, config.StripeConfig{APIKey: "sk_live_123", Env: "test"}, nil); err == nil {
		t.Fatal("live key in test env should fail")
	}

	if _, err := NewClient(ctx, config.StripeConfig{APIKey: "sk_test_123", Env: "live"}, nil); err == nil {
		t.Fatal("test key in live env should fail")
	}

	if _, err := NewClient(ctx, config.StripeConfig{Env: "test"}, nil); err == nil {
		t.Fatal("missing key should fail")
	}

	if _, err := NewClient(ctx, config.StripeConfig{APIKey: "sk_test_123", Env: "staging"}, nil); err == nil {
		t.Fatal("unknown environment should fail")
	}
}

func TestIntentIDFromClientSecret(t *testing.T) {
	id, err := IntentIDFromClientSecret("pi_3Abc_secret_xyz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "pi_3Abc" {
		t.Fatalf("unexpected intent id %q", id)
	}

	if _, err := IntentIDFromClientSecret("garbage"); err == nil {
		t.Fatal("expected malformed secret to fail")
	}
	if _, err := IntentIDFromClientSecret(""); err == nil {
		t.Fatal("expected empty secret to fail")
	}
}
