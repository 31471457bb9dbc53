package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atrium-hq/atrium/internal/auth"
	"github.com/atrium-hq/atrium/internal/identity"
	"github.com/atrium-hq/atrium/internal/session"
	_ "github.com/atrium-hq/atrium/testing"
)

type stubIdentity struct {
	grant     *identity.Grant
	verifyErr error

	lastTokenHash string
	lastTokenType string
}

func (s *stubIdentity) ResolveUser(ctx context.Context, accessToken string) (*identity.User, error) {
	return nil, identity.ErrUnauthenticated
}

func (s *stubIdentity) RefreshSession(ctx context.Context, refreshToken string) (*identity.Grant, error) {
	return nil, identity.ErrUnauthenticated
}

func (s *stubIdentity) VerifyOneTimeToken(ctx context.Context, tokenHash, tokenType string) (*identity.Grant, error) {
	s.lastTokenHash = tokenHash
	s.lastTokenType = tokenType
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return s.grant, nil
}

func serve(t *testing.T, api identity.API, target string) *httptest.ResponseRecorder {
	t.Helper()

	handler := auth.NewHandler(nil, api, session.NewJar("", "", "", false))
	router := chi.NewRouter()
	router.Route("/auth", handler.MountRoutes)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestCallbackRedeemsTokenAndSetsCookies(t *testing.T) {
	api := &stubIdentity{grant: &identity.Grant{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		ExpiresIn:    3600,
		User:         identity.User{ID: "u1", Email: "u@test.local"},
	}}

	rec := serve(t, api, "/auth/callback?token_hash=hash-1&type=magiclink&next=/orders")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/orders", rec.Header().Get("Location"))
	assert.Equal(t, "hash-1", api.lastTokenHash)
	assert.Equal(t, "magiclink", api.lastTokenType)

	access := cookieByName(t, rec, session.DefaultAccessCookie)
	assert.Equal(t, "at-1", access.Value)
	assert.True(t, access.HttpOnly)
	refresh := cookieByName(t, rec, session.DefaultRefreshCookie)
	assert.Equal(t, "rt-1", refresh.Value)
	cookieByName(t, rec, session.DefaultExpiryCookie)
}

func TestCallbackDefaultsNextToRoot(t *testing.T) {
	api := &stubIdentity{grant: &identity.Grant{AccessToken: "at", RefreshToken: "rt", ExpiresIn: 60}}

	rec := serve(t, api, "/auth/callback?token_hash=hash&type=email")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestCallbackBlocksOffsiteNext(t *testing.T) {
	api := &stubIdentity{grant: &identity.Grant{AccessToken: "at", RefreshToken: "rt", ExpiresIn: 60}}

	for _, next := range []string{"https://evil.test", "//evil.test", `/\evil.test`} {
		rec := serve(t, api, "/auth/callback?token_hash=hash&type=email&next="+url.QueryEscape(next))

		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"), "next=%q", next)
	}
}

func TestCallbackProviderErrorRedirectsToLogin(t *testing.T) {
	rec := serve(t, &stubIdentity{}, "/auth/callback?error_description=link+expired")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth", location.Path)
	assert.Equal(t, "link expired", location.Query().Get("error"))
}

func TestCallbackRejectsInvalidParams(t *testing.T) {
	api := &stubIdentity{grant: &identity.Grant{AccessToken: "at"}}

	for _, target := range []string{
		"/auth/callback",
		"/auth/callback?token_hash=hash",
		"/auth/callback?token_hash=hash&type=sms",
	} {
		rec := serve(t, api, target)

		require.Equal(t, http.StatusSeeOther, rec.Code, target)
		location, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/auth", location.Path, target)
		assert.Equal(t, "invalid authentication callback", location.Query().Get("error"), target)
	}
	assert.Empty(t, api.lastTokenHash)
}

func TestCallbackVerifyFailureRedirectsToLogin(t *testing.T) {
	api := &stubIdentity{verifyErr: identity.ErrUnauthenticated}

	rec := serve(t, api, "/auth/callback?token_hash=hash&type=recovery")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth", location.Path)
	assert.NotEmpty(t, location.Query().Get("error"))
	assert.Empty(t, rec.Result().Cookies())
}

func TestLoginEntryEchoesSanitizedError(t *testing.T) {
	rec := serve(t, &stubIdentity{}, "/auth?error=+link+expired+")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sign-in required")
	assert.Contains(t, rec.Body.String(), "link expired")
}

func TestLogoutClearsCookies(t *testing.T) {
	handler := auth.NewHandler(nil, &stubIdentity{}, session.NewJar("", "", "", false))
	router := chi.NewRouter()
	router.Route("/auth", handler.MountRoutes)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth", rec.Header().Get("Location"))
	for _, name := range []string{session.DefaultAccessCookie, session.DefaultRefreshCookie, session.DefaultExpiryCookie} {
		cookie := cookieByName(t, rec, name)
		assert.Equal(t, -1, cookie.MaxAge, name)
	}
}
