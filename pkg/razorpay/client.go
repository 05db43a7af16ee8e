package razorpay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/urbanshoes/storefront/pkg/config"
	"github.com/urbanshoes/storefront/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errKeyIDRequired     = errors.New("razorpay key id is required")
	errKeySecretRequired = errors.New("razorpay key secret is required")
	errInvalidEnv        = fmt.Errorf("razorpay environment must be %q or %q", testEnv, liveEnv)
)

type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Order is the opaque handle returned by the gateway for a created order.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Client wraps Razorpay's API client plus env-specific metadata.
type Client struct {
	orders      orderCreator
	keyID       string
	currency    string
	environment string
}

// NewClient initializes the gateway client once with the configured keys.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}

	api := razorpay.NewClient(keyID, keySecret)

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("razorpay client initialized (%s)", env))
	}

	return &Client{
		orders:      api.Order,
		keyID:       keyID,
		currency:    normalizeCurrency(cfg.Currency),
		environment: env,
	}, nil
}

// CreateOrder registers an order for the given amount in minor units and
// returns the gateway's opaque handle.
func (c *Client) CreateOrder(ctx context.Context, amountMinorUnits int64, receipt string) (*Order, error) {
	if c == nil || c.orders == nil {
		return nil, errors.New("razorpay client not initialized")
	}
	if amountMinorUnits <= 0 {
		return nil, fmt.Errorf("order amount must be positive, got %d", amountMinorUnits)
	}

	data := map[string]interface{}{
		"amount":   amountMinorUnits,
		"currency": c.currency,
		"receipt":  receipt,
	}
	body, err := c.orders.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("create razorpay order: %w", err)
	}

	order := &Order{Currency: c.currency}
	if id, ok := body["id"].(string); ok {
		order.ID = id
	}
	if order.ID == "" {
		return nil, errors.New("razorpay order response missing id")
	}
	switch amount := body["amount"].(type) {
	case float64:
		order.Amount = int64(amount)
	case int64:
		order.Amount = amount
	default:
		order.Amount = amountMinorUnits
	}
	if currency, ok := body["currency"].(string); ok && currency != "" {
		order.Currency = currency
	}
	return order, nil
}

// KeyID returns the public key the payment widget needs.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// Environment reports the normalized gateway environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
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
		return "", errInvalidEnv
	}
}

func normalizeCurrency(raw string) string {
	currency := strings.ToUpper(strings.TrimSpace(raw))
	if currency == "" {
		return "INR"
	}
	return currency
}
