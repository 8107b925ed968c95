// Package auth gates the API behind the band's shared password. A
// successful login mints an opaque random token kept in memory with an
// expiry; restarting the server logs everyone out, which is fine for a
// single-band tool.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

var ErrInvalidPassword = errors.New("invalid password")

type Gate struct {
	password string
	ttl      time.Duration

	mu       sync.Mutex
	sessions map[string]time.Time // token -> expiry
}

// NewGate creates a gate for the given shared password. An empty password
// disables the gate entirely (development only).
func NewGate(password string, ttl time.Duration) *Gate {
	return &Gate{
		password: password,
		ttl:      ttl,
		sessions: make(map[string]time.Time),
	}
}

// Enabled reports whether a password is configured.
func (g *Gate) Enabled() bool {
	return g.password != ""
}

// Login checks the password and returns a new session token.
func (g *Gate) Login(password string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) != 1 {
		return "", ErrInvalidPassword
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	g.mu.Lock()
	g.sessions[token] = time.Now().Add(g.ttl)
	g.mu.Unlock()
	return token, nil
}

// Logout invalidates a session token.
func (g *Gate) Logout(token string) {
	g.mu.Lock()
	delete(g.sessions, token)
	g.mu.Unlock()
}

// Valid reports whether the token belongs to a live session. Expired
// sessions are dropped on sight.
func (g *Gate) Valid(token string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	expiry, ok := g.sessions[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(g.sessions, token)
		return false
	}
	return true
}

// Middleware rejects requests without a live bearer token. When the gate
// is disabled it passes everything through.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" || !g.Valid(token) {
			slog.WarnContext(r.Context(), "Rejected unauthenticated request",
				"path", r.URL.Path, "method", r.Method)
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
