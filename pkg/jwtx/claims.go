package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the session token lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

// Authentication Methods Reference values carried in the "amr" claim.
const (
	AMRPassword = "pwd" // password verified
	AMROTP      = "otp" // TOTP code verified
	AMRBackup   = "bak" // backup code consumed
	AMRMFA      = "mfa" // any second factor was used
)

// Claims are the session token claims. The principal identifier travels in
// the registered "sub" claim.
type Claims struct {
	jwt.RegisteredClaims

	// Authentication Methods Reference, e.g. ["pwd","otp","mfa"].
	AMR []string `json:"amr,omitempty"`
}

// NewClaims builds minimally-correct claims for a principal.
func NewClaims(subject, issuer string, amr []string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		AMR: amr,
	}
}

// PrincipalID returns the subject claim.
func (c Claims) PrincipalID() string { return c.Subject }

// HasAMR reports whether the token records the given authentication method.
func (c Claims) HasAMR(method string) bool {
	return slices.Contains(c.AMR, method)
}
