package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

var (
	errFactorNotProvisioned = authsdk.NewAPIError(http.StatusNotFound, authsdk.ErrorCodeNotFound, "TOTP has not been set up")
	errFactorNotEnabled     = authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "TOTP is not enabled")
	errFactorEnabled        = authsdk.NewAPIError(http.StatusConflict, authsdk.ErrorCodeAlreadyExists, "TOTP is already enabled")
)

// writeServiceError maps a service error to its response. invalid is what
// ErrInvalidCredential means for the calling endpoint: bad login, wrong
// password or wrong code.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, invalid *authsdk.APIError) {
	var dup *service.DuplicateError

	switch {
	case errors.Is(err, service.ErrInvalidCredential):
		invalid.WriteError(w)
	case errors.Is(err, service.ErrAccountLocked):
		authsdk.ErrAccountLocked.WriteError(w)
	case errors.Is(err, service.ErrFactorLocked):
		authsdk.ErrFactorLocked.WriteError(w)
	case errors.Is(err, service.ErrSecondFactorRequired):
		authsdk.ErrMFARequired.WriteError(w)
	case errors.Is(err, service.ErrAccountDisabled):
		authsdk.ErrAccountDisabled.WriteError(w)
	case errors.Is(err, service.ErrUnauthenticated):
		authsdk.ErrInvalidToken.WriteError(w)
	case errors.As(err, &dup):
		authsdk.NewAPIError(http.StatusConflict, authsdk.ErrorCodeAlreadyExists, duplicateDescription(dup)).WriteError(w)
	case errors.Is(err, service.ErrFactorNotProvisioned):
		errFactorNotProvisioned.WriteError(w)
	case errors.Is(err, service.ErrFactorNotEnabled):
		errFactorNotEnabled.WriteError(w)
	case errors.Is(err, service.ErrFactorAlreadyEnabled):
		errFactorEnabled.WriteError(w)
	case errors.Is(err, cryptox.ErrEmptyPassword):
		authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "password must not be empty").WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

func duplicateDescription(dup *service.DuplicateError) string {
	switch {
	case dup.Username && dup.Email:
		return "username and email are already registered"
	case dup.Username:
		return "username is already registered"
	case dup.Email:
		return "email is already registered"
	}
	return "account already exists"
}

func writeValidationError(w http.ResponseWriter, errs map[string]string) {
	httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ValidationErrorResponse{
		Error:            authsdk.ErrorCodeValidation,
		ErrorDescription: "validation failed for some fields",
		Details:          errs,
	})
}

// decodeBody decodes the JSON body into v and writes a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(w, r, v); err != nil {
		slogx.FromContext(r.Context()).Debug("invalid request body", "err", err)
		authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "request body must be valid JSON").WriteError(w)
		return false
	}
	return true
}
