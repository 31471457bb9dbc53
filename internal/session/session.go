// Package session defines the per-request session value and the resolver
// that reconstructs it from transport cookies via the identity service.
package session

import (
	"time"

	"github.com/atrium-hq/atrium/internal/identity"
)

// Session is an authenticated principal with its bounded-lifetime
// credentials. It is rebuilt on every request and discarded at request end;
// a refreshed session is a new value, never an in-place token swap.
type Session struct {
	User         identity.User
	AccessToken  string
	RefreshToken string
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// Valid reports whether the session carries a principal and has not
// expired at the given instant.
func (s Session) Valid(now time.Time) bool {
	return s.User.ID != "" && s.ExpiresAt.After(now)
}

// ExpiringWithin reports whether the session expires within the window
// from the given instant.
func (s Session) ExpiringWithin(now time.Time, window time.Duration) bool {
	return s.ExpiresAt.Sub(now) <= window
}
