package domain

import (
	"strings"
	"time"
)

// Principal is an account that can authenticate.
type Principal struct {
	ID           string
	Username     string
	Email        string // always lower-case
	PasswordHash string // argon2id PHC string, or legacy bcrypt
	FirstName    string
	LastName     string

	IsActive  bool
	IsDeleted bool
	DeletedAt *time.Time

	LastLoginAt   *time.Time
	LoginAttempts int
	LockUntil     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName derives the display name from first and last name.
func FullName(p Principal) string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// IsLocked reports whether a login lock is in force at now.
func (p Principal) IsLocked(now time.Time) bool {
	return p.LockUntil != nil && p.LockUntil.After(now)
}

// CanAuthenticate reports whether the account is neither deleted nor
// deactivated.
func (p Principal) CanAuthenticate() bool {
	return p.IsActive && !p.IsDeleted
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ProfileUpdate holds the mutable profile fields. Nil fields are left
// unchanged. Passwords are deliberately absent.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// IsEmpty reports whether the update changes nothing.
func (u ProfileUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil
}

// Apply returns p with the update's fields applied.
func (u ProfileUpdate) Apply(p Principal) Principal {
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		p.LastName = *u.LastName
	}
	if u.Email != nil {
		p.Email = NormalizeEmail(*u.Email)
	}
	return p
}
