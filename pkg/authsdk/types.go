package authsdk

import "time"

// ============================================================================
// Error Types
// ============================================================================

// ErrorResponse is the JSON body of every error. Client code sees it as
// an *APIError.
type ErrorResponse struct {
	// Error is the machine readable code (e.g. "account_locked")
	Error string `json:"error"`

	// ErrorDescription is a human readable description
	ErrorDescription string `json:"error_description"`
}

// ValidationErrorResponse is returned with 400 when request fields fail
// validation. Details maps field names to the reason.
type ValidationErrorResponse struct {
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description"`
	Details          map[string]string `json:"details,omitempty"`
}

// ============================================================================
// Account Types
// ============================================================================

// RegisterRequest creates an account. POST /v1/users/register
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginRequest signs in with a username or email. When the account has a
// second factor enabled, exactly one of TOTPCode or BackupCode is needed.
// POST /v1/users/login
type LoginRequest struct {
	Login      string `json:"login"`
	Password   string `json:"password"`
	TOTPCode   string `json:"totp_code,omitempty"`
	BackupCode string `json:"backup_code,omitempty"`
}

// SessionResponse carries an issued bearer token.
type SessionResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresIn int       `json:"expires_in"`
	ExpiresAt time.Time `json:"expires_at"`

	// AMR lists how the caller authenticated (e.g. ["pwd","otp","mfa"])
	AMR []string `json:"amr,omitempty"`

	User UserResponse `json:"user"`
}

// UserResponse is the public view of an account. The password hash and
// lockout counters are never exposed.
type UserResponse struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// TOTP is only included on GET /v1/users/me
	TOTP *TOTPStatusResponse `json:"totp,omitempty"`
}

// UpdateProfileRequest changes only the fields that are set.
// PUT /v1/users/me
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// ChangePasswordRequest is sent to PUT /v1/users/me/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// PasswordRequest re-confirms the caller's password for sensitive
// operations (account deletion, disabling TOTP, regenerating codes).
type PasswordRequest struct {
	Password string `json:"password"`
}

// SessionInfoResponse reports who, if anyone, the caller is.
// GET /v1/session
type SessionInfoResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user,omitempty"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ============================================================================
// TOTP Types
// ============================================================================

// TOTPSetupResponse is returned once from POST /v1/totp/setup. The secret
// and backup codes cannot be retrieved again.
type TOTPSetupResponse struct {
	Secret      string   `json:"secret"`
	OTPAuthURL  string   `json:"otpauth_url"`
	QRCode      string   `json:"qr_code"`
	BackupCodes []string `json:"backup_codes"`
}

// CodeRequest carries a TOTP or backup code.
type CodeRequest struct {
	Code string `json:"code"`
}

// TOTPVerifyResponse is returned when a setup code was accepted.
type TOTPVerifyResponse struct {
	Enabled bool `json:"enabled"`
}

// TOTPStatusResponse describes the caller's second factor.
type TOTPStatusResponse struct {
	IsEnabled  bool `json:"is_enabled"`
	IsVerified bool `json:"is_verified"`
	// True once a code set has been issued, even if every code is used
	HasBackupCodes bool `json:"has_backup_codes"`
	// Codes that can still be redeemed
	UnusedBackupCodes int `json:"unused_backup_codes"`
}

// BackupCodesResponse carries a freshly generated set of backup codes.
type BackupCodesResponse struct {
	BackupCodes []string `json:"backup_codes"`
}

// BackupCodeVerifyResponse is returned when a backup code was consumed.
type BackupCodeVerifyResponse struct {
	Valid     bool `json:"valid"`
	Remaining int  `json:"remaining"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	// Status is "ok" or "degraded"
	Status string `json:"status"`

	// Uptime is the service uptime as a duration string (e.g. "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	Version string `json:"version,omitempty"`

	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each dependency.
type HealthChecks struct {
	Database string `json:"database"`

	// Replay is the TOTP replay cache, "disabled" when not configured
	Replay string `json:"replay"`
}
