package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the tollgate identity service. It performs the
// unauthenticated calls and creates authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client for the service at baseURL.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates an account and returns a session for it.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/users/register", "", req)
	if err != nil {
		return nil, err
	}

	var sess SessionResponse
	if err := decodeJSON(resp, &sess, http.StatusCreated); err != nil {
		return nil, err
	}
	return newSession(c, &sess), nil
}

// Login signs in. An account with an enabled second factor fails with
// ErrMFARequired unless req carries a TOTP or backup code.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/users/login", "", req)
	if err != nil {
		return nil, err
	}

	var sess SessionResponse
	if err := decodeJSON(resp, &sess, http.StatusOK); err != nil {
		return nil, err
	}
	return newSession(c, &sess), nil
}

// SessionInfo asks who the holder of token is. An empty or invalid token
// is reported as anonymous, not as an error.
func (c *SDKClient) SessionInfo(ctx context.Context, token string) (*SessionInfoResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/v1/session", token, nil)
	if err != nil {
		return nil, err
	}

	var info SessionInfoResponse
	if err := decodeJSON(resp, &info, http.StatusOK); err != nil {
		return nil, err
	}
	return &info, nil
}

// NewSessionFromToken wraps a token obtained earlier.
func (c *SDKClient) NewSessionFromToken(token string) *Session {
	return &Session{client: c, token: token}
}
