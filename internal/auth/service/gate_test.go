package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestAuthGate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.registerAlice(t)

	token, err := h.tokens.Issue(alice.ID, 0, jwtx.AMRPassword)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		p, err := h.gate.Authenticate(ctx, "Bearer "+token)
		require.NoError(t, err)
		require.Equal(t, alice.ID, p.ID)
		require.Equal(t, "alice", p.Username)

		p, ok := h.gate.OptionalAuthenticate(ctx, "Bearer "+token)
		require.True(t, ok)
		require.Equal(t, alice.ID, p.ID)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		other, err := jwtx.NewCodec(jwtx.Options{Secret: []byte("other"), Issuer: "tollgate-test"})
		require.NoError(t, err)
		forged, err := other.Issue(alice.ID, 0)
		require.NoError(t, err)

		unknown, err := h.tokens.Issue("01HZZZZZZZZZZZZZZZZZZZZZZZ", 0)
		require.NoError(t, err)

		for name, header := range map[string]string{
			"empty":        "",
			"no scheme":    token,
			"lower scheme": "bearer " + token,
			"no token":     "Bearer ",
			"garbage":      "Bearer not.a.jwt",
			"bad secret":   "Bearer " + forged,
			"unknown":      "Bearer " + unknown,
		} {
			_, err := h.gate.Authenticate(ctx, header)
			require.ErrorIs(t, err, ErrUnauthenticated, name)

			_, ok := h.gate.OptionalAuthenticate(ctx, header)
			require.False(t, ok, name)
		}
	})

	t.Run("expiry", func(t *testing.T) {
		short, err := h.tokens.Issue(alice.ID, time.Minute)
		require.NoError(t, err)

		h.clock.Advance(time.Minute - time.Second)
		_, err = h.gate.Authenticate(ctx, "Bearer "+short)
		require.NoError(t, err)

		h.clock.Advance(2 * time.Second)
		_, err = h.gate.Authenticate(ctx, "Bearer "+short)
		require.ErrorIs(t, err, ErrUnauthenticated)
		require.ErrorIs(t, err, jwtx.ErrInvalidToken)
	})

	t.Run("deleted account", func(t *testing.T) {
		fresh, err := h.tokens.Issue(alice.ID, 0)
		require.NoError(t, err)

		require.NoError(t, h.accounts.Delete(ctx, alice.ID, "Abc123!"))

		_, err = h.gate.Authenticate(ctx, "Bearer "+fresh)
		require.ErrorIs(t, err, ErrAccountDisabled)

		_, ok := h.gate.OptionalAuthenticate(ctx, "Bearer "+fresh)
		require.False(t, ok)
	})
}
