// Package session holds the caller's authenticated context. A Session is
// acquired at login and handed to every component that talks to the record
// store; it is never looked up ambiently.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformedToken = errors.New("malformed session token")
	ErrExpired        = errors.New("session expired")
	ErrLoggedOut      = errors.New("session logged out")
)

type Session struct {
	mu        sync.RWMutex
	token     string
	userID    int64
	expiresAt time.Time
	loggedOut bool
	now       func() time.Time
}

// New wraps a token issued by the record store. The signature cannot be
// checked here (the store keeps the key); only exp and user_id are read.
func New(token string) (*Session, error) {
	if token == "" {
		return nil, ErrMalformedToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	s := &Session{token: token, now: time.Now}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if exp != nil {
		s.expiresAt = exp.Time
	}

	if raw, ok := claims["user_id"]; ok {
		if f, ok := raw.(float64); ok {
			s.userID = int64(f)
		}
	}

	return s, nil
}

// Token returns the bearer token, or an error once the session is over.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.loggedOut {
		return "", ErrLoggedOut
	}
	if !s.expiresAt.IsZero() && !s.now().Before(s.expiresAt) {
		return "", ErrExpired
	}
	return s.token, nil
}

func (s *Session) Valid() bool {
	_, err := s.Token()
	return err == nil
}

// Logout invalidates the session. Later Token calls fail with ErrLoggedOut.
func (s *Session) Logout() {
	s.mu.Lock()
	s.loggedOut = true
	s.mu.Unlock()
}

func (s *Session) UserID() int64 {
	return s.userID
}

// ExpiresAt is zero when the token carries no exp claim.
func (s *Session) ExpiresAt() time.Time {
	return s.expiresAt
}
