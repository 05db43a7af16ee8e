package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/urbanshoes/storefront/pkg/config"
)

func signToken(t *testing.T, secret, subject, issuer string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func runSession(t *testing.T, cfg config.AuthConfig, mutate func(*http.Request)) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var captured string
	handler := Session(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, captured
}

func TestSessionUsesBearerSubject(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret", Issuer: "urbanshoes"}
	token := signToken(t, "secret", "user-42", "urbanshoes")

	rec, sessionID := runSession(t, cfg, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if sessionID != "user-42" {
		t.Fatalf("expected token subject as session, got %q", sessionID)
	}
	if got := rec.Header().Get("X-Session-Id"); got != "user-42" {
		t.Fatalf("expected session echoed in header, got %q", got)
	}
}

func TestSessionRejectsBadToken(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret"}
	token := signToken(t, "wrong-secret", "user-42", "")

	rec, _ := runSession(t, cfg, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSessionRejectsWrongIssuer(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret", Issuer: "urbanshoes"}
	token := signToken(t, "secret", "user-42", "someone-else")

	rec, _ := runSession(t, cfg, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSessionGuestHeader(t *testing.T) {
	rec, sessionID := runSession(t, config.AuthConfig{}, func(r *http.Request) {
		r.Header.Set("X-Session-Id", "guest-7")
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if sessionID != "guest-7" {
		t.Fatalf("expected guest header session, got %q", sessionID)
	}
}

func TestSessionMintsFreshGuest(t *testing.T) {
	rec, sessionID := runSession(t, config.AuthConfig{}, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if sessionID == "" {
		t.Fatal("expected a generated session id")
	}
	if got := rec.Header().Get("X-Session-Id"); got != sessionID {
		t.Fatalf("expected generated session echoed, header %q context %q", got, sessionID)
	}
}

func TestSessionIgnoresBearerWhenVerificationDisabled(t *testing.T) {
	token := signToken(t, "whatever", "user-42", "")

	rec, sessionID := runSession(t, config.AuthConfig{}, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
		r.Header.Set("X-Session-Id", "guest-7")
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if sessionID != "guest-7" {
		t.Fatalf("expected guest session, got %q", sessionID)
	}
}
