package handler

import (
	"net/http"
	"testing"
)

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/admin/api/login", map[string]string{"username": testUsername, "password": "nope"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if got := decodeBody(t, rr)["error"]; got != "Invalid username or password" {
		t.Fatalf("unexpected error message %v", got)
	}

	rr = env.do(t, http.MethodPost, "/admin/api/login", map[string]string{"username": "ghost", "password": testPassword})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user should also get 401, got %d", rr.Code)
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	env := newTestEnv(t, withLoginRate(2))

	for i := 0; i < 2; i++ {
		rr := env.do(t, http.MethodPost, "/admin/api/login", map[string]string{"username": testUsername, "password": "wrong"})
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rr.Code)
		}
	}

	rr := env.do(t, http.MethodPost, "/admin/api/login", map[string]string{"username": testUsername, "password": testPassword})
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after the limit, got %d", rr.Code)
	}
}

func TestAdminRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/admin/api/me", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rr.Code)
	}
	if got := decodeBody(t, rr)["error"]; got != "Authentication required" {
		t.Fatalf("unexpected error %v", got)
	}

	env.login(t)
	rr = env.do(t, http.MethodGet, "/admin/api/me", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with session, got %d", rr.Code)
	}
	if got := decodeBody(t, rr)["username"]; got != testUsername {
		t.Fatalf("unexpected username %v", got)
	}
}
