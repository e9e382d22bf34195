// Package session models the externally owned authentication session. The
// identity provider issues and refreshes the bearer token; this core only
// reads it. FromToken extracts display claims (user id, role) from the token
// without verifying the signature, since verification is the provider's job.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User identifies the authenticated dashboard user.
type User struct {
	ID   string
	Role string
}

// Session carries the bearer credential and the user it belongs to.
type Session struct {
	AccessToken string
	User        User
	ExpiresAt   time.Time
}

// Expired reports whether the token's exp claim has passed. A zero ExpiresAt
// means the token carried no expiry and is treated as valid.
func (s Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Provider supplies the current session, if any. Implementations are owned
// by the identity integration, not by this core.
type Provider interface {
	Current() (Session, bool)
}

// StaticProvider returns a fixed session. Useful for tests and tools that
// operate with a pre-issued token.
type StaticProvider struct {
	Session Session
}

// Current implements Provider.
func (p StaticProvider) Current() (Session, bool) {
	if p.Session.AccessToken == "" {
		return Session{}, false
	}
	return p.Session, true
}

// NoSession is a Provider that never has a session. Requests made with it
// go out unauthenticated.
type NoSession struct{}

// Current implements Provider.
func (NoSession) Current() (Session, bool) { return Session{}, false }

// ErrMalformedToken is returned by FromToken when the credential cannot be
// parsed as a JWT at all.
var ErrMalformedToken = errors.New("session: malformed access token")

// FromToken builds a Session from a raw bearer token by decoding its claims.
// The signature is NOT verified here; the backend rejects forged tokens on
// its own. An unparseable token yields ErrMalformedToken.
func FromToken(token string) (Session, error) {
	parser := jwt.NewParser()

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Session{}, ErrMalformedToken
	}

	s := Session{AccessToken: token}

	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		s.User.ID = sub
	} else if id, ok := claims["id"].(string); ok {
		s.User.ID = id
	}

	if role, ok := claims["role"].(string); ok {
		s.User.Role = role
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}

	return s, nil
}
