package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

// ErrConfiguration is returned for settings the service cannot start with.
var ErrConfiguration = errors.New("app: invalid configuration")

// Store drivers accepted by AUTH_STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	HTTPAddr  string `toml:"http_addr"`  // Listen address (default: :8080)
	Env       string `toml:"env"`        // Environment (dev, staging, prod) (default: dev)
	LogLevel  string `toml:"log_level"`  // Log level (debug, info, warn, error) (default: info)
	LogFormat string `toml:"log_format"` // Log format (json, text) (default: json)

	StoreDriver   string `toml:"store_driver"`   // sqlite, postgres or mongo (default: sqlite)
	DatabaseFile  string `toml:"database_file"`  // SQLite database path (default: auth.db)
	PostgresDSN   string `toml:"postgres_dsn"`   // Required for the postgres driver
	MongoURI      string `toml:"mongo_uri"`      // Required for the mongo driver
	MongoDatabase string `toml:"mongo_database"` // Mongo database name (default: tollgate)

	PepperFile    string `toml:"pepper_file"`     // Password pepper, created on first start (default: pepper)
	MasterKeyFile string `toml:"master_key_file"` // Key sealing TOTP secrets, created on first start (default: master.key)
	MasterKey     string `toml:"master_key"`      // Literal key material, takes precedence over the file

	TokenSecret string        `toml:"token_secret"` // Required: HS256 signing secret
	TokenIssuer string        `toml:"token_issuer"` // "iss" claim (default: tollgate)
	TokenTTL    time.Duration `toml:"token_ttl"`    // Session lifetime (default: 24h)
	TOTPIssuer  string        `toml:"totp_issuer"`  // Label shown by authenticator apps (default: Tollgate)

	LoginMaxAttempts  int           `toml:"login_max_attempts"`  // default: 5
	LoginLockDuration time.Duration `toml:"login_lock_duration"` // default: 2h
	TOTPMaxAttempts   int           `toml:"totp_max_attempts"`   // default: 5
	TOTPLockDuration  time.Duration `toml:"totp_lock_duration"`  // default: 15m

	RedisAddr   string   `toml:"redis_addr"`   // Optional: enables the TOTP replay guard
	CORSOrigins []string `toml:"cors_origins"` // Optional: browser origins allowed to call the API

	HousekeepingInterval time.Duration `toml:"housekeeping_interval"`  // default: 1h
	StaleEnrollment      time.Duration `toml:"stale_enrollment"`       // Unconfirmed TOTP setups older than this are removed (default: 24h)
	ShutdownGracePeriod  time.Duration `toml:"shutdown_grace_period"` // default: 10s
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:             ":8080",
		Env:                  "dev",
		LogLevel:             "info",
		LogFormat:            "json",
		StoreDriver:          DriverSQLite,
		DatabaseFile:         "auth.db",
		MongoDatabase:        "tollgate",
		PepperFile:           "pepper",
		MasterKeyFile:        "master.key",
		TokenIssuer:          "tollgate",
		TokenTTL:             jwtx.DefaultTTL,
		TOTPIssuer:           "Tollgate",
		LoginMaxAttempts:     domain.DefaultLoginLockout.MaxAttempts,
		LoginLockDuration:    domain.DefaultLoginLockout.Duration,
		TOTPMaxAttempts:      domain.DefaultFactorLockout.MaxAttempts,
		TOTPLockDuration:     domain.DefaultFactorLockout.Duration,
		HousekeepingInterval: time.Hour,
		StaleEnrollment:      24 * time.Hour,
		ShutdownGracePeriod:  10 * time.Second,
	}
}

// LoadConfig layers the TOML file named by AUTH_CONFIG_FILE (if any) and
// then the environment over DefaultConfig. A numeric variable that does not
// parse is an ErrConfiguration; range checks are left to Validate.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("AUTH_CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: decode %s: %v", ErrConfiguration, path, err)
		}
	}

	var env envParser

	cfg.HTTPAddr = getEnvOrDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)

	cfg.StoreDriver = strings.ToLower(getEnvOrDefault("AUTH_STORE_DRIVER", cfg.StoreDriver))
	cfg.DatabaseFile = getEnvOrDefault("AUTH_DATABASE_FILE", cfg.DatabaseFile)
	cfg.PostgresDSN = getEnvOrDefault("AUTH_POSTGRES_DSN", cfg.PostgresDSN)
	cfg.MongoURI = getEnvOrDefault("AUTH_MONGO_URI", cfg.MongoURI)
	cfg.MongoDatabase = getEnvOrDefault("AUTH_MONGO_DATABASE", cfg.MongoDatabase)

	cfg.PepperFile = getEnvOrDefault("AUTH_PEPPER_FILE", cfg.PepperFile)
	cfg.MasterKeyFile = getEnvOrDefault("AUTH_MASTER_KEY_FILE", cfg.MasterKeyFile)
	cfg.MasterKey = getEnvOrDefault("AUTH_MASTER_KEY", cfg.MasterKey)

	cfg.TokenSecret = getEnvOrDefault("AUTH_TOKEN_SECRET", cfg.TokenSecret)
	cfg.TokenIssuer = getEnvOrDefault("AUTH_TOKEN_ISSUER", cfg.TokenIssuer)
	cfg.TokenTTL = env.getDuration("AUTH_TOKEN_TTL", cfg.TokenTTL)
	cfg.TOTPIssuer = getEnvOrDefault("AUTH_TOTP_ISSUER", cfg.TOTPIssuer)

	cfg.LoginMaxAttempts = env.getInt("AUTH_LOGIN_MAX_ATTEMPTS", cfg.LoginMaxAttempts)
	cfg.LoginLockDuration = env.getDuration("AUTH_LOGIN_LOCK_DURATION", cfg.LoginLockDuration)
	cfg.TOTPMaxAttempts = env.getInt("AUTH_TOTP_MAX_ATTEMPTS", cfg.TOTPMaxAttempts)
	cfg.TOTPLockDuration = env.getDuration("AUTH_TOTP_LOCK_DURATION", cfg.TOTPLockDuration)

	cfg.RedisAddr = getEnvOrDefault("AUTH_REDIS_ADDR", cfg.RedisAddr)
	if origins := os.Getenv("AUTH_CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	cfg.HousekeepingInterval = env.getDuration("HOUSEKEEPING_INTERVAL", cfg.HousekeepingInterval)
	cfg.StaleEnrollment = env.getDuration("HOUSEKEEPING_STALE_ENROLLMENT", cfg.StaleEnrollment)
	cfg.ShutdownGracePeriod = env.getDuration("SHUTDOWN_GRACE", cfg.ShutdownGracePeriod)

	if env.err != nil {
		return cfg, env.err
	}
	return cfg, nil
}

// Validate reports the first setting the service cannot run with, wrapped
// in ErrConfiguration.
func (c Config) Validate() error {
	if c.TokenSecret == "" {
		return fmt.Errorf("%w: AUTH_TOKEN_SECRET: %w", ErrConfiguration, jwtx.ErrMissingSecret)
	}

	switch c.StoreDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			return fmt.Errorf("%w: AUTH_DATABASE_FILE is required for sqlite", ErrConfiguration)
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: AUTH_POSTGRES_DSN is required for postgres", ErrConfiguration)
		}
	case DriverMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return fmt.Errorf("%w: AUTH_MONGO_URI and AUTH_MONGO_DATABASE are required for mongo", ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrConfiguration, c.StoreDriver)
	}

	if c.PepperFile == "" {
		return fmt.Errorf("%w: AUTH_PEPPER_FILE must not be empty", ErrConfiguration)
	}
	if c.MasterKey == "" && c.MasterKeyFile == "" {
		return fmt.Errorf("%w: AUTH_MASTER_KEY or AUTH_MASTER_KEY_FILE is required", ErrConfiguration)
	}

	durations := []struct {
		key string
		val time.Duration
	}{
		{"AUTH_TOKEN_TTL", c.TokenTTL},
		{"AUTH_LOGIN_LOCK_DURATION", c.LoginLockDuration},
		{"AUTH_TOTP_LOCK_DURATION", c.TOTPLockDuration},
		{"HOUSEKEEPING_INTERVAL", c.HousekeepingInterval},
		{"HOUSEKEEPING_STALE_ENROLLMENT", c.StaleEnrollment},
	}
	for _, d := range durations {
		if d.val <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrConfiguration, d.key)
		}
	}
	if c.LoginMaxAttempts <= 0 {
		return fmt.Errorf("%w: AUTH_LOGIN_MAX_ATTEMPTS must be positive", ErrConfiguration)
	}
	if c.TOTPMaxAttempts <= 0 {
		return fmt.Errorf("%w: AUTH_TOTP_MAX_ATTEMPTS must be positive", ErrConfiguration)
	}

	return nil
}

// LoginLockout is the password lockout policy.
func (c Config) LoginLockout() domain.LockoutPolicy {
	return domain.LockoutPolicy{MaxAttempts: c.LoginMaxAttempts, Duration: c.LoginLockDuration}
}

// FactorLockout is the TOTP lockout policy.
func (c Config) FactorLockout() domain.LockoutPolicy {
	return domain.LockoutPolicy{MaxAttempts: c.TOTPMaxAttempts, Duration: c.TOTPLockDuration}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envParser reads typed environment variables and keeps the first value
// that fails to parse.
type envParser struct {
	err error
}

func (p *envParser) fail(key, value, want string) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s: %q is not %s", ErrConfiguration, key, value, want)
	}
}

func (p *envParser) getInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, value, "an integer")
		return defaultValue
	}
	return intValue
}

func (p *envParser) getDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	p.fail(key, value, "a duration")
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
