package authsdk

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Session makes calls as one signed-in account. Tokens are not refreshed;
// once ExpiresAt passes the caller must log in again.
type Session struct {
	client *SDKClient

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	amr       []string
	user      UserResponse
}

func newSession(client *SDKClient, resp *SessionResponse) *Session {
	return &Session{
		client:    client,
		token:     resp.Token,
		expiresAt: resp.ExpiresAt,
		amr:       resp.AMR,
		user:      resp.User,
	}
}

// Token returns the bearer token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// ExpiresAt is the zero time for sessions built from a bare token.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// AMR lists how the session was authenticated.
func (s *Session) AMR() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.amr...)
}

// User is the account as returned at login or registration.
func (s *Session) User() UserResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	return s.client.doJSON(ctx, method, path, s.Token(), body)
}

// Me returns the account with its TOTP status.
func (s *Session) Me(ctx context.Context) (*UserResponse, error) {
	resp, err := s.do(ctx, http.MethodGet, "/v1/users/me", nil)
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return &user, nil
}

func (s *Session) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*UserResponse, error) {
	resp, err := s.do(ctx, http.MethodPut, "/v1/users/me", req)
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Session) ChangePassword(ctx context.Context, current, next string) error {
	resp, err := s.do(ctx, http.MethodPut, "/v1/users/me/password", ChangePasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
	})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// DeleteAccount soft-deletes the account. The session is unusable
// afterwards.
func (s *Session) DeleteAccount(ctx context.Context, password string) error {
	resp, err := s.do(ctx, http.MethodDelete, "/v1/users/me", PasswordRequest{Password: password})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// Logout tells the server the session has ended. The token itself stays
// valid until it expires, so it is also discarded locally.
func (s *Session) Logout(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodPost, "/v1/users/logout", nil)
	if err != nil {
		return err
	}

	var msg MessageResponse
	if err := decodeJSON(resp, &msg, http.StatusOK); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}

// Info reports how the server sees this session.
func (s *Session) Info(ctx context.Context) (*SessionInfoResponse, error) {
	return s.client.SessionInfo(ctx, s.Token())
}
