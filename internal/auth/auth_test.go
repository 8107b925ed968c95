package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoginAndValid(t *testing.T) {
	g := NewGate("secret", time.Hour)
	if !g.Enabled() {
		t.Fatal("gate with password should be enabled")
	}

	token, err := g.Login("secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" || !g.Valid(token) {
		t.Errorf("token %q not valid after login", token)
	}

	if _, err := g.Login("wrong"); err == nil {
		t.Error("wrong password accepted")
	}
	if g.Valid("forged-token") {
		t.Error("unknown token accepted")
	}

	g.Logout(token)
	if g.Valid(token) {
		t.Error("token valid after logout")
	}
}

func TestSessionExpiry(t *testing.T) {
	g := NewGate("secret", -time.Minute)
	token, err := g.Login("secret")
	if err != nil {
		t.Fatal(err)
	}
	if g.Valid(token) {
		t.Error("expired token accepted")
	}
}

func TestMiddleware(t *testing.T) {
	g := NewGate("secret", time.Hour)
	handler := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// No token.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/concerts", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d", rec.Code)
	}

	// Valid token.
	token, err := g.Login("secret")
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/concerts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: status = %d", rec.Code)
	}
}

func TestDisabledGatePassesThrough(t *testing.T) {
	g := NewGate("", time.Hour)
	if g.Enabled() {
		t.Fatal("empty password should disable the gate")
	}
	handler := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/concerts", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("disabled gate: status = %d", rec.Code)
	}
}
