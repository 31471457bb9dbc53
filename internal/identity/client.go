package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// API is the identity service contract consumed by the session resolver
// and the auth callback flow.
type API interface {
	ResolveUser(ctx context.Context, accessToken string) (*User, error)
	RefreshSession(ctx context.Context, refreshToken string) (*Grant, error)
	VerifyOneTimeToken(ctx context.Context, tokenHash, tokenType string) (*Grant, error)
}

// Client talks to a hosted GoTrue-compatible identity API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a new client. Every call is a single bounded
// attempt; retry policy belongs to the identity service, not here.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ResolveUser returns the user owning the access token.
func (c *Client) ResolveUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/user", c.baseURL), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("identity: decode user: %w", err)
	}
	if user.ID == "" {
		return nil, ErrUnauthenticated
	}
	return &user, nil
}

// RefreshSession exchanges a refresh token for a fresh grant.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Grant, error) {
	payload := map[string]string{"refresh_token": refreshToken}
	endpoint := fmt.Sprintf("%s/token?%s", c.baseURL, url.Values{"grant_type": {"refresh_token"}}.Encode())
	return c.postForGrant(ctx, endpoint, payload)
}

// VerifyOneTimeToken redeems a one-time token hash (magic link, recovery,
// invite) for a grant. Used by the auth callback flow only.
func (c *Client) VerifyOneTimeToken(ctx context.Context, tokenHash, tokenType string) (*Grant, error) {
	payload := map[string]string{"token_hash": tokenHash, "type": tokenType}
	return c.postForGrant(ctx, fmt.Sprintf("%s/verify", c.baseURL), payload)
}

func (c *Client) postForGrant(ctx context.Context, endpoint string, payload map[string]string) (*Grant, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	var grant Grant
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return nil, fmt.Errorf("identity: decode grant: %w", err)
	}
	if grant.AccessToken == "" {
		return nil, ErrUnauthenticated
	}
	return &grant, nil
}

func (c *Client) setHeaders(req *http.Request, accessToken string) {
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if id, err := uuid.NewRandom(); err == nil {
		req.Header.Set("X-Request-ID", id.String())
	}
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrUnauthenticated
	case code >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, code)
	case code >= 400:
		return fmt.Errorf("identity: request failed with status %d", code)
	}
	return nil
}

var _ API = (*Client)(nil)
