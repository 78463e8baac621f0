package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newCodec(t *testing.T, clock *fakeClock) *jwtx.Codec {
	t.Helper()
	c, err := jwtx.NewCodec(jwtx.Options{
		Secret: []byte("super-secret-signing-key"),
		Issuer: "tollgate",
		TTL:    time.Hour,
		Now:    clock.Now,
	})
	require.NoError(t, err)
	return c
}

func TestNewCodecRequiresSecret(t *testing.T) {
	_, err := jwtx.NewCodec(jwtx.Options{})
	require.ErrorIs(t, err, jwtx.ErrMissingSecret)
}

func TestIssueAndVerify(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newCodec(t, clock)

	token, err := c.Issue("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", 0, jwtx.AMRPassword)
	require.NoError(t, err)

	claims, err := c.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", claims.PrincipalID())
	require.Equal(t, "tollgate", claims.Issuer)
	require.True(t, claims.HasAMR(jwtx.AMRPassword))
	require.False(t, claims.HasAMR(jwtx.AMRMFA))
	require.NotEmpty(t, claims.ID)
	require.Equal(t, clock.t.Add(time.Hour).Unix(), claims.ExpiresAt.Unix(), "default TTL applies")
}

func TestVerifyExpiryBoundary(t *testing.T) {
	issuedAt := time.Unix(1_700_000_000, 0)
	clock := &fakeClock{t: issuedAt}
	c := newCodec(t, clock)

	ttl := 30 * time.Minute
	token, err := c.Issue("principal", ttl)
	require.NoError(t, err)

	clock.t = issuedAt.Add(ttl - time.Second)
	_, err = c.Verify(token)
	require.NoError(t, err, "token must verify one second before expiry")

	clock.t = issuedAt.Add(ttl + time.Second)
	_, err = c.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerifyRejects(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newCodec(t, clock)

	good, err := c.Issue("principal", time.Hour)
	require.NoError(t, err)

	otherSecret, err := jwtx.NewCodec(jwtx.Options{Secret: []byte("different"), Issuer: "tollgate", Now: clock.Now})
	require.NoError(t, err)
	forged, err := otherSecret.Issue("principal", time.Hour)
	require.NoError(t, err)

	otherIssuer, err := jwtx.NewCodec(jwtx.Options{Secret: []byte("super-secret-signing-key"), Issuer: "someone-else", Now: clock.Now})
	require.NoError(t, err)
	wrongIss, err := otherIssuer.Issue("principal", time.Hour)
	require.NoError(t, err)

	noSubject, err := c.Sign(jwtx.NewClaims("", "tollgate", nil, time.Hour, clock.t))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwtx.NewClaims("principal", "tollgate", nil, time.Hour, clock.t)).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"two segments": parts[0] + "." + parts[1],
		"tampered":     tampered,
		"wrong secret": forged,
		"wrong issuer": wrongIss,
		"missing sub":  noSubject,
		"alg none":     noneAlg,
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Verify(token)
			require.ErrorIs(t, err, jwtx.ErrInvalidToken)
		})
	}
}

func TestVerifyRequiresExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newCodec(t, clock)

	claims := jwtx.NewClaims("principal", "tollgate", nil, time.Hour, clock.t)
	claims.ExpiresAt = nil
	token, err := c.Sign(claims)
	require.NoError(t, err)

	_, err = c.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
}
