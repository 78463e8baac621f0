package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/aussiebroadwan/tollgate/internal/auth/http"
	"github.com/aussiebroadwan/tollgate/internal/auth/replay"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/mongodb"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	redis  *redis.Client
	guard  *replay.RedisGuard
	box    *cryptox.SecretBox
	hasher *cryptox.PasswordHasher
	tokens *jwtx.Codec

	// Services
	credentials  *service.CredentialService
	backupCodes  *service.BackupCodeService
	totp         *service.TOTPService
	accounts     *service.AccountService
	gate         *service.AuthGate
	housekeeping *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New validates cfg and builds every dependency. Configuration problems
// are returned wrapped in ErrConfiguration.
func New(ctx context.Context, cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "tollgate-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initKeys(); err != nil {
		return nil, err
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initReplay(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeeping.Start()

	app.logger.Info("auth service starting",
		"addr", app.cfg.HTTPAddr,
		"store", app.cfg.StoreDriver,
		"replay_guard", app.guard != nil,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeeping.Stop()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests and releases every dependency.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeping.Stop()

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// Handler exposes the routed handler, for tests that drive the wired
// application without a listener.
func (app *Application) Handler() http.Handler {
	return app.router
}

// initKeys loads the password pepper, the master key that seals TOTP
// secrets and the token signing secret.
func (app *Application) initKeys() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewPasswordHasher(pepper)

	key, err := cryptox.LoadMasterKey(app.cfg.MasterKeyFile, app.cfg.MasterKey)
	if err != nil {
		return fmt.Errorf("failed to load master key: %w", err)
	}
	app.box, err = cryptox.NewSecretBox(key)
	if err != nil {
		return fmt.Errorf("failed to initialise secret box: %w", err)
	}

	app.tokens, err = jwtx.NewCodec(jwtx.Options{
		Secret: []byte(app.cfg.TokenSecret),
		Issuer: app.cfg.TokenIssuer,
		TTL:    app.cfg.TokenTTL,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

// initDatabase opens the configured store and applies its migrations.
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.StoreDriver {
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, app.cfg.PostgresDSN)
	case DriverMongo:
		db, err = mongodb.NewStore(ctx, app.cfg.MongoURI, app.cfg.MongoDatabase)
	default:
		db, err = sqlite.NewStore(app.cfg.DatabaseFile)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize %s store: %w", app.cfg.StoreDriver, err)
	}
	app.db = db

	if err := db.ApplyMigrations(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "store", app.cfg.StoreDriver)
	return nil
}

// initReplay connects the TOTP replay guard when a redis address is set.
func (app *Application) initReplay(ctx context.Context) error {
	if app.cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: app.cfg.RedisAddr})
	guard := replay.NewRedisGuard(client, replay.DefaultTTL)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := guard.Ping(pingCtx); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to redis at %s: %w", app.cfg.RedisAddr, err)
	}

	app.redis = client
	app.guard = guard
	app.logger.Info("totp replay guard enabled", "addr", app.cfg.RedisAddr)
	return nil
}

// initServices builds the business services over the store.
func (app *Application) initServices() {
	app.credentials = &service.CredentialService{
		Store:  app.db,
		Hasher: app.hasher,
		Policy: app.cfg.LoginLockout(),
	}

	app.backupCodes = &service.BackupCodeService{
		Store:       app.db,
		Credentials: app.credentials,
	}

	app.totp = &service.TOTPService{
		Store:       app.db,
		Box:         app.box,
		Credentials: app.credentials,
		BackupCodes: app.backupCodes,
		Issuer:      app.cfg.TOTPIssuer,
		Policy:      app.cfg.FactorLockout(),
	}
	if app.guard != nil {
		app.totp.Replay = app.guard
	}

	app.accounts = &service.AccountService{
		Store:       app.db,
		Credentials: app.credentials,
		TOTP:        app.totp,
		BackupCodes: app.backupCodes,
		Tokens:      app.tokens,
	}

	app.gate = &service.AuthGate{Store: app.db, Tokens: app.tokens}

	app.housekeeping = service.NewHousekeepingService(app.db, app.logger, app.cfg.HousekeepingInterval)
	app.housekeeping.StaleEnrollment = app.cfg.StaleEnrollment
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.Gate = app.gate
	router.Accounts = app.accounts
	router.TOTP = app.totp
	router.BackupCodes = app.backupCodes
	router.CORSOrigins = app.cfg.CORSOrigins
	if app.guard != nil {
		router.Replay = app.guard
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              app.cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
