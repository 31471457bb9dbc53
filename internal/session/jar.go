package session

import (
	"net/http"
	"strconv"
	"time"

	"github.com/atrium-hq/atrium/internal/identity"
)

// Default cookie names.
const (
	DefaultAccessCookie  = "atrium_access_token"
	DefaultRefreshCookie = "atrium_refresh_token"
	DefaultExpiryCookie  = "atrium_expires_at"
)

// Jar reads and writes the auth cookies. The identity service does not
// always report token lifetime on resolution, so the expiry hint cookie
// persists the real expiry of the last issued grant; the resolver falls
// back to a nominal lifetime when the hint is missing or garbled.
type Jar struct {
	accessName  string
	refreshName string
	expiryName  string
	secure      bool
}

// NewJar constructs a Jar. Empty names fall back to the defaults.
func NewJar(accessName, refreshName, expiryName string, secure bool) *Jar {
	if accessName == "" {
		accessName = DefaultAccessCookie
	}
	if refreshName == "" {
		refreshName = DefaultRefreshCookie
	}
	if expiryName == "" {
		expiryName = DefaultExpiryCookie
	}
	return &Jar{accessName: accessName, refreshName: refreshName, expiryName: expiryName, secure: secure}
}

// Credentials holds the raw cookie material for one request.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Read extracts credentials from the request cookies. A zero ExpiresAt
// means no usable expiry hint was present.
func (j *Jar) Read(r *http.Request) Credentials {
	var creds Credentials
	if c, err := r.Cookie(j.accessName); err == nil {
		creds.AccessToken = c.Value
	}
	if c, err := r.Cookie(j.refreshName); err == nil {
		creds.RefreshToken = c.Value
	}
	if c, err := r.Cookie(j.expiryName); err == nil {
		if unix, err := strconv.ParseInt(c.Value, 10, 64); err == nil && unix > 0 {
			creds.ExpiresAt = time.Unix(unix, 0)
		}
	}
	return creds
}

// WriteGrant persists a freshly issued grant to the response cookies.
func (j *Jar) WriteGrant(w http.ResponseWriter, grant *identity.Grant, now time.Time) {
	expiresAt := now.Add(time.Duration(grant.ExpiresIn) * time.Second)
	j.write(w, j.accessName, grant.AccessToken, expiresAt)
	j.write(w, j.refreshName, grant.RefreshToken, expiresAt)
	j.write(w, j.expiryName, strconv.FormatInt(expiresAt.Unix(), 10), expiresAt)
}

// Clear expires all auth cookies.
func (j *Jar) Clear(w http.ResponseWriter) {
	for _, name := range []string{j.accessName, j.refreshName, j.expiryName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   j.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (j *Jar) write(w http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
}
