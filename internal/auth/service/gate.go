package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/idx"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// AuthGate resolves the principal behind an Authorization header.
type AuthGate struct {
	Store  store.Store
	Tokens *jwtx.Codec
}

// Authenticate returns the principal named by a valid bearer token. Every
// header or token problem, and a token naming no known principal, is
// ErrUnauthenticated. A deleted or deactivated principal is
// ErrAccountDisabled.
func (g *AuthGate) Authenticate(ctx context.Context, header string) (domain.Principal, error) {
	if header == "" {
		return domain.Principal{}, ErrUnauthenticated
	}

	raw, err := jwtx.ExtractFromHeader(header)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	claims, err := g.Tokens.Verify(raw)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	if _, err := idx.Parse(claims.PrincipalID()); err != nil {
		return domain.Principal{}, fmt.Errorf("%w: subject: %w", ErrUnauthenticated, err)
	}

	p, err := g.Store.Principals().GetPrincipalByID(ctx, claims.PrincipalID())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Principal{}, ErrUnauthenticated
		}
		slogx.FromContext(ctx).Error("failed to load principal for token",
			slog.String("principal_id", claims.PrincipalID()), slog.Any("error", err))
		return domain.Principal{}, fmt.Errorf("load principal: %w", err)
	}

	if !p.CanAuthenticate() {
		return domain.Principal{}, ErrAccountDisabled
	}
	return p, nil
}

// OptionalAuthenticate is Authenticate without failure: any error yields
// an anonymous caller.
func (g *AuthGate) OptionalAuthenticate(ctx context.Context, header string) (domain.Principal, bool) {
	p, err := g.Authenticate(ctx, header)
	if err != nil {
		return domain.Principal{}, false
	}
	return p, true
}
