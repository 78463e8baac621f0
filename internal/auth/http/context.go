package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

type ctxKey int

const ctxKeyPrincipal ctxKey = iota

// WithPrincipal attaches p to ctx.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// PrincipalFromContext returns the principal attached by RequireAuth or
// OptionalAuth.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(domain.Principal)
	return p, ok
}

// RequireAuth rejects requests without a valid bearer token with 401 and a
// WWW-Authenticate challenge. The principal is attached to the context.
func RequireAuth(gate *service.AuthGate) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			p, err := gate.Authenticate(ctx, r.Header.Get("Authorization"))
			switch {
			case err == nil:
			case errors.Is(err, service.ErrAccountDisabled):
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				authsdk.ErrAccountDisabled.WriteError(w)
				return
			case errors.Is(err, service.ErrUnauthenticated):
				slogx.FromContext(ctx).Debug("request rejected", "reason", err.Error())
				authsdk.ErrInvalidToken.WriteError(w)
				return
			default:
				slogx.FromContext(ctx).Error("authentication failed", "err", err)
				authsdk.ErrServerError.WriteError(w)
				return
			}

			slogx.Annotate(ctx, "principal_id", p.ID)
			ctx = slogx.With(ctx, "principal_id", p.ID)
			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, p)))
		})
	}
}

// OptionalAuth attaches the principal when the request carries a valid
// token and otherwise lets the request through anonymously.
func OptionalAuth(gate *service.AuthGate) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, ok := gate.OptionalAuthenticate(r.Context(), r.Header.Get("Authorization")); ok {
				r = r.WithContext(WithPrincipal(r.Context(), p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// principal returns the authenticated caller or writes a 401. Routes behind
// RequireAuth always have one.
func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
	}
	return p, ok
}
