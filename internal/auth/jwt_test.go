package auth

import (
	"testing"
	"time"

	"placement-crm/backend/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	service, err := NewService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("service init: %v", err)
	}

	csrf, err := GenerateCSRFToken()
	if err != nil {
		t.Fatalf("csrf: %v", err)
	}

	user := models.User{ID: 7, Name: "Priya Sharma", Email: "priya@college.edu", Role: "LEADER"}
	token, err := service.GenerateToken(user, csrf)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	parsed, err := service.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}

	if parsed.ID != user.ID || parsed.Email != user.Email || parsed.Role != user.Role {
		t.Fatalf("unexpected claims: %+v", parsed)
	}
	if parsed.CSRF != csrf {
		t.Fatalf("csrf mismatch")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	service, err := NewService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("service init: %v", err)
	}
	if _, err := service.ParseToken("not-a-token"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewServiceRequiresSecret(t *testing.T) {
	if _, err := NewService("", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
