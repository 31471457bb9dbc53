package session

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/atrium-hq/atrium/internal/identity"
)

// ErrReauthenticate signals that a refresh attempt failed and the caller
// must be sent back through the login flow instead of proceeding with an
// about-to-expire token.
var ErrReauthenticate = errors.New("session: reauthentication required")

// RefreshRecorder receives the result of each token refresh attempt.
type RefreshRecorder interface {
	ObserveRefresh(result string)
}

// Resolver turns request cookies into a Session by consulting the
// identity service. Every identity failure except a failed refresh
// collapses to "no session"; nothing escapes as a hard error.
type Resolver struct {
	identity      identity.API
	jar           *Jar
	lifetime      time.Duration
	refreshWindow time.Duration
	logger        *slog.Logger
	refreshes     RefreshRecorder
	refreshGroup  singleflight.Group
	now           func() time.Time
}

// ResolverConfig collects Resolver dependencies.
type ResolverConfig struct {
	Identity identity.API
	Jar      *Jar
	// Lifetime is the nominal session lifetime assumed when no expiry
	// hint cookie is present. Defaults to one hour.
	Lifetime time.Duration
	// RefreshWindow is how close to expiry a session may get before a
	// refresh is forced. Defaults to thirty minutes.
	RefreshWindow time.Duration
	Logger        *slog.Logger
	// Refreshes, when set, is notified of every refresh attempt result.
	Refreshes RefreshRecorder
	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewResolver constructs a Resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = time.Hour
	}
	if cfg.RefreshWindow <= 0 {
		cfg.RefreshWindow = 30 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Resolver{
		identity:      cfg.Identity,
		jar:           cfg.Jar,
		lifetime:      cfg.Lifetime,
		refreshWindow: cfg.RefreshWindow,
		logger:        cfg.Logger,
		refreshes:     cfg.Refreshes,
		now:           cfg.Now,
	}
}

// Jar exposes the cookie jar so auth handlers can issue and clear
// credentials through the same codec.
func (r *Resolver) Jar() *Jar {
	return r.jar
}

// Resolve produces the session for the request, or (nil, nil) when the
// caller is not authenticated. The response writer is the outbound cookie
// jar: refreshed tokens are persisted through it before Resolve returns.
// Returns ErrReauthenticate when a required refresh failed.
func (r *Resolver) Resolve(w http.ResponseWriter, req *http.Request) (*Session, error) {
	creds := r.jar.Read(req)
	if creds.AccessToken == "" {
		return nil, nil
	}

	now := r.now()
	user, err := r.identity.ResolveUser(req.Context(), creds.AccessToken)
	if err != nil {
		if !errors.Is(err, identity.ErrUnauthenticated) {
			r.logger.Warn("resolve user", slog.Any("error", err))
		}
		return nil, nil
	}

	expiresAt := creds.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = now.Add(r.lifetime)
	}
	sess := &Session{
		User:         *user,
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		IssuedAt:     now,
		ExpiresAt:    expiresAt,
	}

	if !sess.ExpiringWithin(now, r.refreshWindow) {
		return sess, nil
	}

	grant, err := r.refresh(req, creds.RefreshToken)
	if r.refreshes != nil {
		if err != nil {
			r.refreshes.ObserveRefresh("failure")
		} else {
			r.refreshes.ObserveRefresh("success")
		}
	}
	if err != nil {
		r.logger.Warn("token refresh failed, forcing re-authentication",
			slog.String("user_id", user.ID), slog.Any("error", err))
		r.jar.Clear(w)
		return nil, ErrReauthenticate
	}

	r.jar.WriteGrant(w, grant, now)
	return &Session{
		User:         grant.User,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		IssuedAt:     now,
		ExpiresAt:    now.Add(time.Duration(grant.ExpiresIn) * time.Second),
	}, nil
}

// refresh performs a single bounded refresh attempt. Concurrent requests
// holding the same refresh token share one upstream call; a refresh token
// is single-use upstream, so racing two exchanges would revoke the winner.
func (r *Resolver) refresh(req *http.Request, refreshToken string) (*identity.Grant, error) {
	if refreshToken == "" {
		return nil, identity.ErrUnauthenticated
	}
	result, err, _ := r.refreshGroup.Do(refreshToken, func() (any, error) {
		return r.identity.RefreshSession(req.Context(), refreshToken)
	})
	if err != nil {
		return nil, err
	}
	return result.(*identity.Grant), nil
}
