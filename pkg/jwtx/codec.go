package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingSecret is a configuration error: a codec cannot exist without
	// a signing secret.
	ErrMissingSecret = errors.New("jwtx: signing secret is not configured")

	// ErrInvalidToken covers malformed structure, bad signature, wrong
	// algorithm, wrong issuer and expiry.
	ErrInvalidToken = errors.New("jwtx: invalid token")
)

// Options configure a Codec.
type Options struct {
	// Secret is the HMAC key. Required.
	Secret []byte

	// Issuer is written to and required in the "iss" claim. Empty disables
	// the issuer check.
	Issuer string

	// TTL is used by Issue when the caller passes a non-positive ttl.
	TTL time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Codec issues and verifies HS256 session tokens. Verification depends only
// on the token, the secret and the clock.
type Codec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewCodec validates opts and returns a ready codec.
func NewCodec(opts Options) (*Codec, error) {
	if len(opts.Secret) == 0 {
		return nil, ErrMissingSecret
	}

	c := &Codec{
		secret: append([]byte(nil), opts.Secret...),
		issuer: opts.Issuer,
		ttl:    opts.TTL,
		now:    opts.Now,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.now == nil {
		c.now = time.Now
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(c.issuer))
	}
	c.parser = jwt.NewParser(parserOpts...)

	return c, nil
}

// TTL returns the default lifetime applied by Issue.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a token for principalID valid for ttl (the configured default
// when ttl <= 0).
func (c *Codec) Issue(principalID string, ttl time.Duration, amr ...string) (string, error) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	claims := NewClaims(principalID, c.issuer, amr, ttl, c.now())
	return c.Sign(claims)
}

// Sign signs arbitrary claims with the codec's secret.
func (c *Codec) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify parses and validates token, returning its claims. Every failure
// wraps ErrInvalidToken.
func (c *Codec) Verify(token string) (Claims, error) {
	var claims Claims
	parsed, err := c.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
