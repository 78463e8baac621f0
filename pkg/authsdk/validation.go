package authsdk

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	reasonRequired = "required"

	minPasswordLength = 6
	maxPasswordLength = 128
	maxNameLength     = 50
)

var (
	reUsername   = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)
	reTOTPCode   = regexp.MustCompile(`^[0-9]{6}$`)
	reBackupCode = regexp.MustCompile(`^[A-Z0-9]{6}$`)
)

// Validate checks the registration fields. It returns field name to
// reason, or nil when every field is valid.
func (r RegisterRequest) Validate() map[string]string {
	errs := make(map[string]string)

	username := strings.TrimSpace(r.Username)
	switch {
	case username == "":
		errs["username"] = reasonRequired
	case !reUsername.MatchString(username):
		errs["username"] = "must be 3-30 letters, numbers or underscores"
	}

	validateEmail(errs, "email", r.Email)
	validateNewPassword(errs, "password", r.Password)
	validateName(errs, "first_name", r.FirstName)
	validateName(errs, "last_name", r.LastName)

	return orNil(errs)
}

func (r LoginRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(r.Login) == "" {
		errs["login"] = reasonRequired
	}
	if r.Password == "" {
		errs["password"] = reasonRequired
	}
	if r.TOTPCode != "" && !reTOTPCode.MatchString(strings.TrimSpace(r.TOTPCode)) {
		errs["totp_code"] = "must be 6 digits"
	}
	if r.BackupCode != "" && !reBackupCode.MatchString(normalizeBackupCode(r.BackupCode)) {
		errs["backup_code"] = "must be 6 letters or numbers"
	}

	return orNil(errs)
}

// Validate checks only the fields that are set.
func (r UpdateProfileRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.FirstName != nil {
		validateName(errs, "first_name", *r.FirstName)
	}
	if r.LastName != nil {
		validateName(errs, "last_name", *r.LastName)
	}
	if r.Email != nil {
		validateEmail(errs, "email", *r.Email)
	}

	return orNil(errs)
}

func (r ChangePasswordRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.CurrentPassword == "" {
		errs["current_password"] = reasonRequired
	}
	validateNewPassword(errs, "new_password", r.NewPassword)

	return orNil(errs)
}

func (r PasswordRequest) Validate() map[string]string {
	if r.Password == "" {
		return map[string]string{"password": reasonRequired}
	}
	return nil
}

// ValidateTOTP checks the code is six digits.
func (r CodeRequest) ValidateTOTP() map[string]string {
	if !reTOTPCode.MatchString(strings.TrimSpace(r.Code)) {
		return map[string]string{"code": "must be 6 digits"}
	}
	return nil
}

// ValidateBackup checks the code is six letters or digits. Lower case is
// accepted and upper-cased.
func (r CodeRequest) ValidateBackup() map[string]string {
	if !reBackupCode.MatchString(normalizeBackupCode(r.Code)) {
		return map[string]string{"code": "must be 6 letters or numbers"}
	}
	return nil
}

func normalizeBackupCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validateEmail(errs map[string]string, field, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs[field] = reasonRequired
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		errs[field] = "must be a valid email address"
	}
}

func validateNewPassword(errs map[string]string, field, pw string) {
	switch {
	case pw == "":
		errs[field] = reasonRequired
	case utf8.RuneCountInString(pw) < minPasswordLength:
		errs[field] = "too short (min 6)"
	case len(pw) > maxPasswordLength:
		errs[field] = "too long (max 128)"
	}
}

func validateName(errs map[string]string, field, name string) {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	switch {
	case n == 0:
		errs[field] = reasonRequired
	case n > maxNameLength:
		errs[field] = "too long (max 50)"
	}
}

func orNil(errs map[string]string) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
