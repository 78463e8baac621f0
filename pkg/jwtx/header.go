package jwtx

import (
	"errors"
	"strings"
)

// BearerPrefix is the exact, case-sensitive Authorization scheme prefix.
const BearerPrefix = "Bearer "

// ErrMalformedHeader is returned when an Authorization value does not carry a
// bearer token.
var ErrMalformedHeader = errors.New("jwtx: malformed authorization header")

// ExtractFromHeader returns the token from an Authorization header value of
// the form "Bearer <token>". Lower-case schemes, extra spaces and empty
// tokens are rejected.
func ExtractFromHeader(value string) (string, error) {
	if !strings.HasPrefix(value, BearerPrefix) {
		return "", ErrMalformedHeader
	}
	token := value[len(BearerPrefix):]
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrMalformedHeader
	}
	return token, nil
}
