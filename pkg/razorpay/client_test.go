package razorpay

import (
	"context"
	"errors"
	"testing"

	"github.com/urbanshoes/storefront/pkg/config"
)

type stubOrders struct {
	resp map[string]interface{}
	err  error

	gotData map[string]interface{}
}

func (s *stubOrders) Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	s.gotData = data
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func TestNewClientRequiresKeys(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(context.Background(), config.RazorpayConfig{KeySecret: "s"}, nil); err != errKeyIDRequired {
		t.Fatalf("expected key id error, got %v", err)
	}
	if _, err := NewClient(context.Background(), config.RazorpayConfig{KeyID: "k"}, nil); err != errKeySecretRequired {
		t.Fatalf("expected key secret error, got %v", err)
	}
	if _, err := NewClient(context.Background(), config.RazorpayConfig{KeyID: "k", KeySecret: "s", Env: "staging"}, nil); err != errInvalidEnv {
		t.Fatalf("expected invalid env error, got %v", err)
	}
}

func TestCreateOrder(t *testing.T) {
	t.Parallel()

	orders := &stubOrders{resp: map[string]interface{}{
		"id":       "order_123",
		"amount":   float64(24999),
		"currency": "INR",
	}}
	client := &Client{orders: orders, currency: "INR", environment: testEnv}

	order, err := client.CreateOrder(context.Background(), 24999, "receipt_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID != "order_123" || order.Amount != 24999 || order.Currency != "INR" {
		t.Fatalf("unexpected order %+v", order)
	}
	if orders.gotData["amount"] != int64(24999) {
		t.Fatalf("amount not forwarded in minor units: %v", orders.gotData["amount"])
	}
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	t.Parallel()

	client := &Client{orders: &stubOrders{}, currency: "INR"}
	if _, err := client.CreateOrder(context.Background(), 0, "r"); err == nil {
		t.Fatal("expected error for zero amount")
	}
}

func TestCreateOrderWrapsGatewayErrors(t *testing.T) {
	t.Parallel()

	cause := errors.New("BAD_REQUEST_ERROR")
	client := &Client{orders: &stubOrders{err: cause}, currency: "INR"}

	_, err := client.CreateOrder(context.Background(), 100, "r")
	if err == nil || !errors.Is(err, cause) {
		t.Fatalf("expected wrapped gateway error, got %v", err)
	}
}

func TestCreateOrderRequiresID(t *testing.T) {
	t.Parallel()

	client := &Client{orders: &stubOrders{resp: map[string]interface{}{"amount": float64(1)}}, currency: "INR"}
	if _, err := client.CreateOrder(context.Background(), 100, "r"); err == nil {
		t.Fatal("expected error when response lacks an order id")
	}
}
