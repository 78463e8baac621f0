package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"

	_ "github.com/aussiebroadwan/tollgate/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Pinger reports whether an optional dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	Gate        *service.AuthGate
	Accounts    *service.AccountService
	TOTP        *service.TOTPService
	BackupCodes *service.BackupCodeService

	// Replay is pinged by /readyz when the TOTP replay cache is configured.
	Replay Pinger

	// CORSOrigins enables browser access from these origins.
	CORSOrigins []string
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}
}

// ApplyRoutes registers every route and builds the global middleware
// chain. Services must be set before it is called.
func (r *Router) ApplyRoutes() {
	r.middlewares = []httpx.Middleware{
		httpx.Recover(r.logger),
		slogx.HTTPMiddleware(r.logger),
		httpx.CORS(r.CORSOrigins),
	}

	r.registerUsers()
	r.registerSession()
	r.registerTOTP()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Tollgate Identity Service API
//	@version		0.1.0
//	@description	Account registration and login with optional TOTP second factor and single-use backup codes.
//	@description
//	@description				Session tokens are HS256 JWTs sent as "Authorization: Bearer {token}".
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/tollgate
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{Accounts: r.Accounts}
	authed := RequireAuth(r.Gate)

	r.Mux.HandleFunc("POST /v1/users/register", h.HandleRegister)
	r.Mux.HandleFunc("POST /v1/users/login", h.HandleLogin)

	r.Mux.Handle("POST /v1/users/logout", httpx.Chain(http.HandlerFunc(h.HandleLogout), authed))
	r.Mux.Handle("GET /v1/users/me", httpx.Chain(http.HandlerFunc(h.HandleMe), authed))
	r.Mux.Handle("PUT /v1/users/me", httpx.Chain(http.HandlerFunc(h.HandleUpdateProfile), authed))
	r.Mux.Handle("PUT /v1/users/me/password", httpx.Chain(http.HandlerFunc(h.HandleChangePassword), authed))
	r.Mux.Handle("DELETE /v1/users/me", httpx.Chain(http.HandlerFunc(h.HandleDelete), authed))
}

func (r *Router) registerSession() {
	r.Mux.Handle("GET /v1/session", httpx.Chain(http.HandlerFunc(HandleSessionInfo), OptionalAuth(r.Gate)))
}

func (r *Router) registerTOTP() {
	h := &TOTPHandler{TOTP: r.TOTP, BackupCodes: r.BackupCodes}
	authed := RequireAuth(r.Gate)

	r.Mux.Handle("POST /v1/totp/setup", httpx.Chain(http.HandlerFunc(h.HandleSetup), authed))
	r.Mux.Handle("POST /v1/totp/verify", httpx.Chain(http.HandlerFunc(h.HandleVerify), authed))
	r.Mux.Handle("GET /v1/totp/status", httpx.Chain(http.HandlerFunc(h.HandleStatus), authed))
	r.Mux.Handle("DELETE /v1/totp", httpx.Chain(http.HandlerFunc(h.HandleDisable), authed))
	r.Mux.Handle("POST /v1/totp/backup-codes", httpx.Chain(http.HandlerFunc(h.HandleRegenerateBackupCodes), authed))
	r.Mux.Handle("POST /v1/totp/backup-codes/verify", httpx.Chain(http.HandlerFunc(h.HandleVerifyBackupCode), authed))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Replay))
}
