package identity

import "errors"

// User represents the principal resolved by the identity service.
type User struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"user_metadata"`
}

// Grant is a credential set issued by the identity service after a
// successful verification or refresh. Tokens are opaque and only ever
// forwarded back to the service.
type Grant struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         User   `json:"user"`
}

// Sentinel errors returned by API implementations.
var (
	// ErrUnauthenticated indicates the credentials were rejected.
	ErrUnauthenticated = errors.New("identity: unauthenticated")
	// ErrUnavailable indicates the identity service could not be reached.
	ErrUnavailable = errors.New("identity: service unavailable")
)
