package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"placement-crm/backend/internal/auth"
)

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	key := "client"
	if !limiter.Allow(key) {
		t.Fatalf("expected allow on first")
	}
	if !limiter.Allow(key) {
		t.Fatalf("expected allow on second")
	}
	if limiter.Allow(key) {
		t.Fatalf("expected block on third")
	}
	if !limiter.Allow("other-client") {
		t.Fatalf("expected independent window per client")
	}
}

func TestValidateCSRF(t *testing.T) {
	user := auth.User{CSRF: "token"}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if err := ValidateCSRF(req, user); err == nil {
		t.Fatalf("expected csrf error")
	}
	req.Header.Set("X-CSRF-Token", "token")
	if err := ValidateCSRF(req, user); err != nil {
		t.Fatalf("unexpected csrf error: %v", err)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:4230"
	if key := ClientKey(req); key != "10.0.0.5" {
		t.Fatalf("unexpected key: %s", key)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.5")
	if key := ClientKey(req); key != "203.0.113.9" {
		t.Fatalf("unexpected forwarded key: %s", key)
	}
}
