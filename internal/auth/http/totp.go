package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// TOTPHandler serves second factor setup and management for the caller.
type TOTPHandler struct {
	TOTP        *service.TOTPService
	BackupCodes *service.BackupCodeService
}

// HandleSetup handles POST /v1/totp/setup
//
//	@Summary		Set up TOTP
//	@Description	Generates a new secret and backup codes. The factor stays disabled until a code is confirmed on /v1/totp/verify.
//	@Description	Calling this again before confirming replaces the previous secret and codes.
//	@Tags			TOTP
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.TOTPSetupResponse	"Secret, otpauth URL, QR code and backup codes (shown once)"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Invalid or missing token"
//	@Failure		409	{object}	authsdk.ErrorResponse		"TOTP already enabled"
//	@Failure		500	{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/totp/setup [post].
func (h *TOTPHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	e, err := h.TOTP.Provision(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err, authsdk.ErrInvalidRequest)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TOTPSetupResponse{
		Secret:      e.Secret,
		OTPAuthURL:  e.URI,
		QRCode:      e.QRCode,
		BackupCodes: e.BackupCodes,
	})
}

// HandleVerify handles POST /v1/totp/verify
//
//	@Summary		Confirm TOTP setup
//	@Description	Enables the factor when the code matches. Codes from two steps either side of now are accepted.
//	@Tags			TOTP
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CodeRequest				true	"6 digit code"
//	@Success		200		{object}	authsdk.TOTPVerifyResponse		"Factor enabled"
//	@Failure		400		{object}	authsdk.ValidationErrorResponse	"Malformed or wrong code"
//	@Failure		401		{object}	authsdk.ErrorResponse			"Invalid or missing token"
//	@Failure		404		{object}	authsdk.ErrorResponse			"TOTP not set up"
//	@Failure		423		{object}	authsdk.ErrorResponse			"Too many wrong codes"
//	@Router			/v1/totp/verify [post].
func (h *TOTPHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req authsdk.CodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.ValidateTOTP(); errs != nil {
		writeValidationError(w, errs)
		return
	}

	ok, err := h.TOTP.Confirm(r.Context(), p.ID, strings.TrimSpace(req.Code))
	if err != nil {
		writeServiceError(w, r, err, authsdk.ErrInvalidCode)
		return
	}
	if !ok {
		slogx.FromContext(r.Context()).Info("totp confirmation rejected")
		authsdk.ErrInvalidCode.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TOTPVerifyResponse{Enabled: true})
}

// HandleStatus handles GET /v1/totp/status
//
//	@Summary		TOTP status
//	@Tags			TOTP
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.TOTPStatusResponse	"Status"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Invalid or missing token"
//	@Router			/v1/totp/status [get].
func (h *TOTPHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	st, err := h.TOTP.Status(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err, authsdk.ErrInvalidRequest)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toStatusResponse(st))
}

// HandleDisable handles DELETE /v1/totp
//
//	@Summary		Disable TOTP
//	@Description	Removes the factor and its backup codes. Requires the account password, not a TOTP code.
//	@Tags			TOTP
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	authsdk.PasswordRequest	true	"Current password"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"Password missing or incorrect"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing token"
//	@Failure		404	{object}	authsdk.ErrorResponse	"TOTP not set up"
//	@Router			/v1/totp [delete].
func (h *TOTPHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req authsdk.PasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); errs != nil {
		writeValidationError(w, errs)
		return
	}

	if err := h.TOTP.Disable(r.Context(), p, req.Password); err != nil {
		writeServiceError(w, r, err, authsdk.ErrInvalidPassword)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleRegenerateBackupCodes handles POST /v1/totp/backup-codes
//
//	@Summary		Regenerate backup codes
//	@Description	Replaces every backup code, used or not, with a fresh set of ten.
//	@Tags			TOTP
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.PasswordRequest		true	"Current password"
//	@Success		200		{object}	authsdk.BackupCodesResponse	"New backup codes (shown once)"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Password incorrect or TOTP not enabled"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid or missing token"
//	@Router			/v1/totp/backup-codes [post].
func (h *TOTPHandler) HandleRegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req authsdk.PasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); errs != nil {
		writeValidationError(w, errs)
		return
	}

	codes, err := h.BackupCodes.Regenerate(r.Context(), p, req.Password)
	if err != nil {
		writeServiceError(w, r, err, authsdk.ErrInvalidPassword)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.BackupCodesResponse{BackupCodes: codes})
}

// HandleVerifyBackupCode handles POST /v1/totp/backup-codes/verify
//
//	@Summary		Use a backup code
//	@Description	Consumes one backup code. Each code works exactly once.
//	@Tags			TOTP
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CodeRequest					true	"Backup code"
//	@Success		200		{object}	authsdk.BackupCodeVerifyResponse	"Code accepted"
//	@Failure		400		{object}	authsdk.ErrorResponse				"Malformed, wrong or used code"
//	@Failure		401		{object}	authsdk.ErrorResponse				"Invalid or missing token"
//	@Failure		423		{object}	authsdk.ErrorResponse				"Second factor locked"
//	@Router			/v1/totp/backup-codes/verify [post].
func (h *TOTPHandler) HandleVerifyBackupCode(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req authsdk.CodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.ValidateBackup(); errs != nil {
		writeValidationError(w, errs)
		return
	}

	ok, err := h.BackupCodes.Consume(r.Context(), p.ID, req.Code)
	if err != nil {
		writeServiceError(w, r, err, authsdk.ErrInvalidCode)
		return
	}
	if !ok {
		authsdk.ErrInvalidCode.WriteError(w)
		return
	}

	st, err := h.TOTP.Status(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err, authsdk.ErrInvalidCode)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.BackupCodeVerifyResponse{
		Valid:     true,
		Remaining: st.UnusedBackupCodes,
	})
}
