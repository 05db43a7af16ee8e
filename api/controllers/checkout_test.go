package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/urbanshoes/storefront/internal/checkout"
	pkgerrors "github.com/urbanshoes/storefront/pkg/errors"
)

type stubCheckoutService struct {
	status    *checkout.Session
	submitErr error
	submitted *checkout.ShippingForm
	confirmed map[string]any
}

func (s *stubCheckoutService) Status(ctx context.Context, sessionID string) (*checkout.Session, error) {
	if s.status != nil {
		return s.status, nil
	}
	return &checkout.Session{SessionID: sessionID, State: checkout.StateCollecting}, nil
}

func (s *stubCheckoutService) Submit(ctx context.Context, sessionID string, form checkout.ShippingForm) (*checkout.Session, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	s.submitted = &form
	return &checkout.Session{SessionID: sessionID, State: checkout.StateSubmitting, Form: form, OrderID: "order_1"}, nil
}

func (s *stubCheckoutService) Confirm(ctx context.Context, sessionID string, payload map[string]any) (*checkout.Session, error) {
	s.confirmed = payload
	return &checkout.Session{SessionID: sessionID, State: checkout.StateSucceeded, Confirmation: payload}, nil
}

func TestSubmitCheckout(t *testing.T) {
	logg := testControllerLogger()

	t.Run("accepts a valid form", func(t *testing.T) {
		svc := &stubCheckoutService{}
		body := `{"name":"Ada","email":"ada@example.com","address":"1 High St"}`
		req := sessionRequest(http.MethodPost, "/api/v1/checkout", body, "sess-1")
		rec := httptest.NewRecorder()
		SubmitCheckout(svc, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.submitted == nil || svc.submitted.Name != "Ada" {
			t.Fatalf("expected form forwarded, got %+v", svc.submitted)
		}
	})

	t.Run("rejects an incomplete form", func(t *testing.T) {
		svc := &stubCheckoutService{}
		req := sessionRequest(http.MethodPost, "/api/v1/checkout", `{"name":"Ada"}`, "sess-1")
		rec := httptest.NewRecorder()
		SubmitCheckout(svc, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if svc.submitted != nil {
			t.Fatal("invalid form must not reach the service")
		}
	})

	t.Run("maps an in-flight checkout to 422", func(t *testing.T) {
		svc := &stubCheckoutService{submitErr: pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already in progress")}
		body := `{"name":"Ada","email":"ada@example.com","address":"1 High St"}`
		req := sessionRequest(http.MethodPost, "/api/v1/checkout", body, "sess-1")
		rec := httptest.NewRecorder()
		SubmitCheckout(svc, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("requires a session", func(t *testing.T) {
		svc := &stubCheckoutService{}
		body := `{"name":"Ada","email":"ada@example.com","address":"1 High St"}`
		req := sessionRequest(http.MethodPost, "/api/v1/checkout", body, "")
		rec := httptest.NewRecorder()
		SubmitCheckout(svc, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestConfirmCheckout(t *testing.T) {
	logg := testControllerLogger()
	svc := &stubCheckoutService{}

	body := `{"razorpay_payment_id":"pay_42","razorpay_order_id":"order_1","razorpay_signature":"sig"}`
	req := sessionRequest(http.MethodPost, "/api/v1/checkout/confirm", body, "sess-1")
	rec := httptest.NewRecorder()
	ConfirmCheckout(svc, logg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.confirmed["razorpay_payment_id"] != "pay_42" {
		t.Fatalf("expected payload forwarded opaquely, got %+v", svc.confirmed)
	}

	var envelope struct {
		Data checkout.Session `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if envelope.Data.State != checkout.StateSucceeded {
		t.Fatalf("expected succeeded, got %s", envelope.Data.State)
	}
}

func TestCheckoutStatus(t *testing.T) {
	logg := testControllerLogger()
	svc := &stubCheckoutService{status: &checkout.Session{SessionID: "sess-1", State: checkout.StateSubmitting, OrderID: "order_1"}}

	req := sessionRequest(http.MethodGet, "/api/v1/checkout", "", "sess-1")
	rec := httptest.NewRecorder()
	CheckoutStatus(svc, logg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope struct {
		Data checkout.Session `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if envelope.Data.State != checkout.StateSubmitting || envelope.Data.OrderID != "order_1" {
		t.Fatalf("unexpected status payload: %+v", envelope.Data)
	}
}
