package authsdk

import (
	"context"
	"net/http"
)

// SetupTOTP provisions a new, unconfirmed second factor. The response is
// the only time the secret and backup codes are shown.
func (s *Session) SetupTOTP(ctx context.Context) (*TOTPSetupResponse, error) {
	resp, err := s.do(ctx, http.MethodPost, "/v1/totp/setup", nil)
	if err != nil {
		return nil, err
	}

	var setup TOTPSetupResponse
	if err := decodeJSON(resp, &setup, http.StatusOK); err != nil {
		return nil, err
	}
	return &setup, nil
}

// VerifyTOTP confirms the setup with a code from the authenticator. A
// wrong code fails with ErrInvalidCode.
func (s *Session) VerifyTOTP(ctx context.Context, code string) (*TOTPVerifyResponse, error) {
	resp, err := s.do(ctx, http.MethodPost, "/v1/totp/verify", CodeRequest{Code: code})
	if err != nil {
		return nil, err
	}

	var out TOTPVerifyResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) TOTPStatus(ctx context.Context) (*TOTPStatusResponse, error) {
	resp, err := s.do(ctx, http.MethodGet, "/v1/totp/status", nil)
	if err != nil {
		return nil, err
	}

	var st TOTPStatusResponse
	if err := decodeJSON(resp, &st, http.StatusOK); err != nil {
		return nil, err
	}
	return &st, nil
}

// DisableTOTP removes the second factor. It takes the account password,
// not a TOTP code.
func (s *Session) DisableTOTP(ctx context.Context, password string) error {
	resp, err := s.do(ctx, http.MethodDelete, "/v1/totp", PasswordRequest{Password: password})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// RegenerateBackupCodes replaces every backup code with a new set.
func (s *Session) RegenerateBackupCodes(ctx context.Context, password string) ([]string, error) {
	resp, err := s.do(ctx, http.MethodPost, "/v1/totp/backup-codes", PasswordRequest{Password: password})
	if err != nil {
		return nil, err
	}

	var out BackupCodesResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.BackupCodes, nil
}

// VerifyBackupCode spends one backup code.
func (s *Session) VerifyBackupCode(ctx context.Context, code string) (*BackupCodeVerifyResponse, error) {
	resp, err := s.do(ctx, http.MethodPost, "/v1/totp/backup-codes/verify", CodeRequest{Code: code})
	if err != nil {
		return nil, err
	}

	var out BackupCodeVerifyResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
