package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgauth "github.com/multifolks/multifolks-backend/pkg/auth"
	"github.com/multifolks/multifolks-backend/pkg/config"
)

func TestOwnerRejectsMissingCredentials(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	handler := Owner(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestOwnerRejectsInvalidToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	handler := Owner(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	req.Header.Set("X-Guest-Id", "guest-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d, bad token must not downgrade to guest", resp.Code)
	}
}

func TestOwnerAllowsValidToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
	token, err := pkgauth.MintOwnerToken(cfg, time.Now().UTC(), "user-42", "shopper@example.com")
	if err != nil {
		t.Fatalf("mint owner token: %v", err)
	}

	var captured struct {
		owner string
		email string
		guest bool
	}
	handler := Owner(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.owner = OwnerIDFromContext(r.Context())
		captured.email = EmailFromContext(r.Context())
		captured.guest = IsGuestFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.owner != "user-42" {
		t.Fatalf("expected owner user-42 got %s", captured.owner)
	}
	if captured.email != "shopper@example.com" {
		t.Fatalf("expected email in context got %s", captured.email)
	}
	if captured.guest {
		t.Fatal("token owner must not be marked guest")
	}
}

func TestOwnerFallsBackToGuestHeader(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

	var captured struct {
		owner string
		guest bool
	}
	handler := Owner(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.owner = OwnerIDFromContext(r.Context())
		captured.guest = IsGuestFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Guest-Id", "guest-7")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.owner != "guest-7" {
		t.Fatalf("expected owner guest-7 got %s", captured.owner)
	}
	if !captured.guest {
		t.Fatal("guest header owner must be marked guest")
	}
}

func TestRequireAuthenticatedBlocksGuest(t *testing.T) {
	handler := RequireAuthenticated(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	ctx := WithOwnerID(req.Context(), "guest-7")
	ctx = context.WithValue(ctx, ctxGuest, true)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req.WithContext(ctx))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}
