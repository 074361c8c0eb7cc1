package auth

import (
	"testing"
	"time"

	"github.com/multifolks/multifolks-backend/pkg/config"
)

func TestMintAndParseOwnerToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "multifolks",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()

	token, err := MintOwnerToken(cfg, now, "user-123", "shopper@example.com")
	if err != nil {
		t.Fatalf("mint owner token: %v", err)
	}

	claims, err := ParseOwnerToken(cfg, token)
	if err != nil {
		t.Fatalf("parse owner token: %v", err)
	}

	if claims.Subject != "user-123" {
		t.Fatalf("expected subject user-123, got %s", claims.Subject)
	}
	if claims.Email != "shopper@example.com" {
		t.Fatalf("email not preserved, got %s", claims.Email)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("issuer mismatch, got %s", claims.Issuer)
	}
}

func TestMintOwnerTokenRequiresOwner(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "multifolks", ExpirationMinutes: 30}
	if _, err := MintOwnerToken(cfg, time.Now(), "", ""); err == nil {
		t.Fatal("expected error for empty owner id")
	}
}

func TestParseOwnerTokenRejectsWrongSecret(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "multifolks", ExpirationMinutes: 30}
	token, err := MintOwnerToken(cfg, time.Now().UTC(), "user-123", "")
	if err != nil {
		t.Fatalf("mint owner token: %v", err)
	}

	other := config.JWTConfig{Secret: "different", Issuer: "multifolks", ExpirationMinutes: 30}
	if _, err := ParseOwnerToken(other, token); err == nil {
		t.Fatal("expected parse failure with wrong secret")
	}
}
