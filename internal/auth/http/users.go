package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
)

// UsersHandler serves registration, login and the caller's own account.
type UsersHandler struct {
	Accounts *service.AccountService
}

// HandleRegister handles POST /v1/users/register
//
//	@Summary		Register an account
//	@Description	Creates an active account and returns a session token. Username and email must not belong to another active account.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest			true	"Account details"
//	@Success		201		{object}	authsdk.SessionResponse			"Created account and session token"
//	@Failure		400		{object}	authsdk.ValidationErrorResponse	"Invalid request body or validation failed"
//	@Failure		409		{object}	authsdk.ErrorResponse			"Username or email already registered"
//	@Failure		500		{object}	authsdk.ErrorResponse			"Internal server error"
//	@Router			/v1/users/register [post].
func (h *UsersHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); errs != nil {
		writeValidationError(w, errs)
		return
	}

	sess, err := h.Accounts.Register(r.Context(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeServiceError(w, r, err, authsdk.ErrInvalidRequest)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toSessionResponse(sess))
}

// HandleLogin handles POST /v1/users/login
//
//	@Summary		Log in
//	@Description	Authenticates with username or email and password. Accounts with TOTP enabled must also send totp_code or backup_code.
//	@Description	Five wrong passwords lock the account for two hours; five wrong TOTP codes lock the second factor for fifteen minutes.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest			true	"Credentials"
//	@Success		200		{object}	authsdk.SessionResponse			"Session token"
//	@Failure		400		{object}	authsdk.ValidationErrorResponse	"Invalid request body or validation failed"
//	@Failure		401		{object}	authsdk.ErrorResponse			"Invalid credentials or account disabled"
//	@Failure		409		{object}	authsdk.ErrorResponse			"Second factor code required"
//	@Failure		423		{object}	authsdk.ErrorResponse			"Account or second factor locked"
//	@Failure		500		{object}	authsdk.ErrorResponse			"Internal server error"
//	@Router			/v1/users/login [post].
func (h *UsersHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); errs != nil {
		writeValidationError(w, errs)
		return
	}

	sess, err := h.Accounts.Login(r.Context(), service.LoginInput{
		Login:      req.Login,
		Password:   req.Password,
		TOTPCode:   req.TOTPCode,
		BackupCode: req.BackupCode,
	})
	if err != nil {
		writeServiceError(w, r, err, authsdk.ErrInvalidCredentials)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(sess))
}

// HandleLogout handles POST /v1/users/logout
//
//	@Summary		Log out
//	@Description	Acknowledges the end of the session. Tokens are stateless and remain valid until they expire; clients must discard them.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MessageResponse	"Logged out"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing token"
//	@Router			/v1/users/logout [post].
func (h *UsersHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	h.Accounts.Logout(r.Context(), p)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "logged out"})
}

// HandleMe handles GET /v1/users/me
//
//	@Summary		Get own profile
//	@Description	Returns the caller's account and TOTP status.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserResponse	"Account"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing token"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/users/me [get].
func (h *UsersHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	prof, err := h.Accounts.Profile(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err, authsdk.ErrInvalidRequest)
		return
	}

	resp := toUserResponse(prof.Principal)
	st := toStatusResponse(prof.Factor)
	resp.TOTP = &st

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleUpdateProfile handles PUT /v1/users/me
//
//	@Summary		Update own profile
//	@Description	Changes first name, last name or email. Only fields present in the body are changed.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.UpdateProfileRequest	true	"Fields to change"
//	@Success		200		{object}	authsdk.UserResponse			"Updated account"
//	@Failure		400		{object}	authsdk.ValidationErrorResponse	"Invalid request body or validation failed"
//	@Failure		401		{object}	authsdk.ErrorResponse			"Invalid or missing token"
//	@Failure		409		{object}	authsdk.ErrorResponse			"Email already registered"
//	@Router			/v1/users/me [put].
func (h *UsersHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req authsdk.UpdateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); errs != nil {
		writeValidationError(w, errs)
		return
	}

	updated, err := h.Accounts.UpdateProfile(r.Context(), p.ID, domain.ProfileUpdate{
		FirstName: trimmed(req.FirstName),
		LastName:  trimmed(req.LastName),
		Email:     req.Email,
	})
	if err != nil {
		writeServiceError(w, r, err, authsdk.ErrInvalidRequest)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUserResponse(updated))
}

// HandleChangePassword handles PUT /v1/users/me/password
//
//	@Summary		Change password
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	authsdk.ChangePasswordRequest	true	"Current and new password"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"Validation failed or current password incorrect"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing token"
//	@Router			/v1/users/me/password [put].
func (h *UsersHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req authsdk.ChangePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); errs != nil {
		writeValidationError(w, errs)
		return
	}

	if err := h.Accounts.ChangePassword(r.Context(), p.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err, authsdk.ErrInvalidPassword)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /v1/users/me
//
//	@Summary		Delete own account
//	@Description	Soft-deletes the account after checking the password. The username and email become free for new registrations.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	authsdk.PasswordRequest	true	"Current password"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"Password missing or incorrect"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing token"
//	@Router			/v1/users/me [delete].
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.Accounts.Delete(r.Context(), p.ID, req.Password); err != nil {
		writeServiceError(w, r, err, authsdk.ErrInvalidPassword)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
