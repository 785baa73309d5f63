package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"

	"github.com/artvinci/artvinci-go/pkg/config"
	"github.com/artvinci/artvinci-go/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

// Client confirms payment intents the backend created for a checkout.
type Client struct {
	environment string
}

// ConfirmResult carries the outcome the checkout flow branches on.
type ConfirmResult struct {
	IntentID  string
	Status    stripe.PaymentIntentStatus
	Succeeded bool
}

// NewClient initializes Stripe once with the configured key and env.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	stripe.Key = apiKey

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))
	}

	return &Client{environment: env}, nil
}

// ConfirmCardPayment confirms the payment intent addressed by clientSecret
// with the provided payment method.
func (c *Client) ConfirmCardPayment(ctx context.Context, clientSecret, paymentMethodID string) (*ConfirmResult, error) {
	intentID, err := IntentIDFromClientSecret(clientSecret)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(paymentMethodID) == "" {
		return nil, errors.New("payment method id is required")
	}

	params := &stripe.PaymentIntentConfirmParams{
		Params:        stripe.Params{Context: ctx},
		PaymentMethod: stripe.String(paymentMethodID),
	}
	intent, err := paymentintent.Confirm(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("confirming payment intent: %w", err)
	}

	return &ConfirmResult{
		IntentID:  intent.ID,
		Status:    intent.Status,
		Succeeded: intent.Status == stripe.PaymentIntentStatusSucceeded,
	}, nil
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// IntentIDFromClientSecret extracts the payment intent id from a client
// secret of the form pi_xxx_secret_yyy.
func IntentIDFromClientSecret(clientSecret string) (string, error) {
	secret := strings.TrimSpace(clientSecret)
	id, _, found := strings.Cut(secret, "_secret")
	if !found || id == "" {
		return "", fmt.Errorf("malformed client secret")
	}
	return id, nil
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
