package authsdk

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAPIErrorWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrInvalidToken.WriteError(rec)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, `Bearer error="invalid_token"`, rec.Header().Get("WWW-Authenticate"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"error":"invalid_token","error_description":"the access token is missing, invalid or expired"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	ErrAccountLocked.WriteError(rec)
	require.Equal(t, http.StatusLocked, rec.Code)
	require.Empty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestParseErrorResponse(t *testing.T) {
	parse := func(status int, body string) error {
		resp := &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
		return parseErrorResponse(resp, []byte(body))
	}

	require.NoError(t, parse(http.StatusOK, `{}`))

	err := parse(http.StatusLocked, `{"error":"account_locked","error_description":"later"}`)
	require.ErrorIs(t, err, ErrAccountLocked)
	require.False(t, errors.Is(err, ErrFactorLocked))

	err = parse(http.StatusBadRequest, `{"error":"validation_error","error_description":"bad","details":{"email":"required"}}`)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Equal(t, "required", valErr.Details["email"])

	err = parse(http.StatusBadGateway, `<html>`)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, ErrorCodeServerError, apiErr.Code)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}
