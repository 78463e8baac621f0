package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("AUTH_CONFIG_FILE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, DriverSQLite, cfg.StoreDriver)
	require.Equal(t, 24*time.Hour, cfg.TokenTTL)
	require.Equal(t, 5, cfg.LoginMaxAttempts)
	require.Equal(t, 2*time.Hour, cfg.LoginLockDuration)
	require.Equal(t, 5, cfg.TOTPMaxAttempts)
	require.Equal(t, 15*time.Minute, cfg.TOTPLockDuration)
	require.Empty(t, cfg.RedisAddr)
	require.Equal(t, "master.key", cfg.MasterKeyFile)
}

func TestLoadConfigLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr = ":9000"
store_driver = "postgres"
postgres_dsn = "postgres://file"
token_secret = "from-file"
token_ttl = "2h"
totp_lock_duration = "30m"
cors_origins = ["https://a.example"]
`), 0o600))

	t.Setenv("AUTH_CONFIG_FILE", path)
	t.Setenv("AUTH_POSTGRES_DSN", "postgres://env")
	t.Setenv("AUTH_LOGIN_MAX_ATTEMPTS", "3")
	t.Setenv("AUTH_LOGIN_LOCK_DURATION", "90")
	t.Setenv("AUTH_CORS_ORIGINS", "https://b.example, https://c.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, ":9000", cfg.HTTPAddr)
	require.Equal(t, DriverPostgres, cfg.StoreDriver)
	require.Equal(t, "postgres://env", cfg.PostgresDSN, "environment wins over the file")
	require.Equal(t, "from-file", cfg.TokenSecret)
	require.Equal(t, 2*time.Hour, cfg.TokenTTL)
	require.Equal(t, 30*time.Minute, cfg.TOTPLockDuration)
	require.Equal(t, 3, cfg.LoginMaxAttempts)
	require.Equal(t, 90*time.Minute, cfg.LoginLockDuration, "bare integers are minutes")
	require.Equal(t, []string{"https://b.example", "https://c.example"}, cfg.CORSOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.toml")
	require.NoError(t, os.WriteFile(path, []byte("token_ttl = ["), 0o600))
	t.Setenv("AUTH_CONFIG_FILE", path)

	_, err := LoadConfig()
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadConfigMalformedEnv(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"AUTH_LOGIN_LOCK_DURATION", "2hours"},
		{"AUTH_TOTP_LOCK_DURATION", "fifteen"},
		{"AUTH_TOTP_MAX_ATTEMPTS", "five"},
		{"AUTH_LOGIN_MAX_ATTEMPTS", "5.5"},
		{"AUTH_TOKEN_TTL", "1d"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv("AUTH_CONFIG_FILE", "")
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			require.ErrorIs(t, err, ErrConfiguration)
			require.ErrorContains(t, err, tt.key)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := DefaultConfig()
	valid.TokenSecret = "secret"
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secret", func(c *Config) { c.TokenSecret = "" }},
		{"unknown driver", func(c *Config) { c.StoreDriver = "cassandra" }},
		{"postgres without dsn", func(c *Config) { c.StoreDriver = DriverPostgres }},
		{"mongo without uri", func(c *Config) { c.StoreDriver = DriverMongo }},
		{"zero token ttl", func(c *Config) { c.TokenTTL = 0 }},
		{"negative login lock", func(c *Config) { c.LoginLockDuration = -time.Minute }},
		{"zero totp attempts", func(c *Config) { c.TOTPMaxAttempts = 0 }},
		{"zero housekeeping interval", func(c *Config) { c.HousekeepingInterval = 0 }},
		{"no master key", func(c *Config) { c.MasterKey, c.MasterKeyFile = "", "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrConfiguration)
		})
	}

	cfg := valid
	cfg.TokenSecret = ""
	require.ErrorIs(t, cfg.Validate(), jwtx.ErrMissingSecret)
}

func TestLockoutPolicies(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LoginMaxAttempts = 7
	cfg.TOTPLockDuration = time.Minute

	require.Equal(t, 7, cfg.LoginLockout().MaxAttempts)
	require.Equal(t, 2*time.Hour, cfg.LoginLockout().Duration)
	require.Equal(t, 5, cfg.FactorLockout().MaxAttempts)
	require.Equal(t, time.Minute, cfg.FactorLockout().Duration)
}
