package session

import (
	"testing"
	"time"

	"github.com/atrium-hq/atrium/internal/identity"
)

func TestValid(t *testing.T) {
	now := time.Now()

	sess := Session{User: identity.User{ID: "u1"}, ExpiresAt: now.Add(time.Hour)}
	if !sess.Valid(now) {
		t.Fatalf("expected session with principal and future expiry to be valid")
	}

	expired := Session{User: identity.User{ID: "u1"}, ExpiresAt: now.Add(-time.Second)}
	if expired.Valid(now) {
		t.Fatalf("expected expired session to be invalid")
	}

	anonymous := Session{ExpiresAt: now.Add(time.Hour)}
	if anonymous.Valid(now) {
		t.Fatalf("session without a principal must never be valid")
	}
}

func TestExpiringWithin(t *testing.T) {
	now := time.Now()
	sess := Session{User: identity.User{ID: "u1"}, ExpiresAt: now.Add(20 * time.Minute)}

	if !sess.ExpiringWithin(now, 30*time.Minute) {
		t.Fatalf("20m remaining should fall inside a 30m window")
	}
	if sess.ExpiringWithin(now, 10*time.Minute) {
		t.Fatalf("20m remaining should fall outside a 10m window")
	}
	if !sess.ExpiringWithin(now, 20*time.Minute) {
		t.Fatalf("boundary counts as expiring")
	}
}
