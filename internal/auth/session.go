// Package auth provides the read-only authentication capability threaded
// through every store and session operation. Credential issuance lives in a
// separate service; this package only holds the issued bearer token and a
// logout hook.
package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultLeeway is the clock-skew allowance applied when inspecting token
// expiry locally.
const DefaultLeeway = 30 * time.Second

// ErrNotAuthenticated is returned when an operation requires a usable bearer
// token and none is present. It is surfaced to the user before any network
// call is made.
var ErrNotAuthenticated = errors.New("not authenticated")

// Session is the opaque bearer-token capability consumed by the stores and
// the session controller. The token is read-only from the client core's
// perspective; Logout is the only mutation.
type Session struct {
	mu       sync.RWMutex
	token    string
	onLogout func()
	leeway   time.Duration
}

// NewSession creates a session holding the given bearer token. onLogout may
// be nil; when set, it is invoked exactly once on Logout.
func NewSession(token string, onLogout func()) *Session {
	return &Session{
		token:    token,
		onLogout: onLogout,
		leeway:   DefaultLeeway,
	}
}

// Token returns the bearer token, or the empty string after logout or when
// no token was ever issued.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether the session holds a token that is not known
// to be expired. A token that does not parse as a JWT is treated as opaque
// and passed through; the remote store is the authority on its validity.
func (s *Session) Authenticated() bool {
	token := s.Token()
	if token == "" {
		return false
	}
	return !expired(token, s.leeway)
}

// Require returns the bearer token, or ErrNotAuthenticated when the session
// cannot authenticate a call.
func (s *Session) Require() (string, error) {
	if !s.Authenticated() {
		return "", ErrNotAuthenticated
	}
	return s.Token(), nil
}

// Logout clears the token and invokes the logout hook once. Subsequent
// calls are no-ops.
func (s *Session) Logout() {
	s.mu.Lock()
	hook := s.onLogout
	s.onLogout = nil
	cleared := s.token != ""
	s.token = ""
	s.mu.Unlock()

	if cleared && hook != nil {
		hook()
	}
}

// expired inspects the token's exp claim without verifying the signature.
// The client never holds the signing secret, so this is a best-effort local
// check that short-circuits calls guaranteed to fail with 401.
func expired(token string, leeway time.Duration) bool {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return time.Now().After(claims.ExpiresAt.Time.Add(leeway))
}
