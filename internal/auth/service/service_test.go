package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"github.com/stretchr/testify/require"
)

// cheapArgon2 keeps hashing fast in tests.
var cheapArgon2 = cryptox.Argon2Params{Memory: 64, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	store    store.Store
	clock    *clock
	tokens   *jwtx.Codec
	creds    *CredentialService
	codes    *BackupCodeService
	totp     *TOTPService
	gate     *AuthGate
	accounts *AccountService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	clk := &clock{now: time.Unix(1_700_000_010, 0).UTC()}

	box, err := cryptox.NewSecretBox([]byte("test-master-key"))
	require.NoError(t, err)

	tokens, err := jwtx.NewCodec(jwtx.Options{
		Secret: []byte("test-token-secret"),
		Issuer: "tollgate-test",
		TTL:    time.Hour,
		Now:    clk.Now,
	})
	require.NoError(t, err)

	creds := &CredentialService{
		Store:  st,
		Hasher: &cryptox.PasswordHasher{Pepper: "pepper", Params: cheapArgon2},
		Now:    clk.Now,
	}
	codes := &BackupCodeService{Store: st, Credentials: creds, Now: clk.Now}
	factors := &TOTPService{
		Store:       st,
		Box:         box,
		Credentials: creds,
		BackupCodes: codes,
		Issuer:      "Tollgate",
		Now:         clk.Now,
	}

	return &harness{
		store:    st,
		clock:    clk,
		tokens:   tokens,
		creds:    creds,
		codes:    codes,
		totp:     factors,
		gate:     &AuthGate{Store: st, Tokens: tokens},
		accounts: &AccountService{
			Store:       st,
			Credentials: creds,
			TOTP:        factors,
			BackupCodes: codes,
			Tokens:      tokens,
			Now:         clk.Now,
		},
	}
}

func (h *harness) registerAlice(t *testing.T) domain.Principal {
	t.Helper()
	sess, err := h.accounts.Register(context.Background(), RegisterInput{
		Username:  "alice",
		Email:     "alice@x.com",
		Password:  "Abc123!",
		FirstName: "Alice",
		LastName:  "Liddell",
	})
	require.NoError(t, err)
	return sess.Principal
}

// enroll provisions and confirms a factor for p.
func (h *harness) enroll(t *testing.T, p domain.Principal) Enrollment {
	t.Helper()
	ctx := context.Background()

	e, err := h.totp.Provision(ctx, p)
	require.NoError(t, err)

	ok, err := h.totp.Confirm(ctx, p.ID, h.code(t, e.Secret, 0))
	require.NoError(t, err)
	require.True(t, ok)
	return e
}

// code computes the TOTP code delta steps away from the harness clock.
func (h *harness) code(t *testing.T, secret string, delta int64) string {
	t.Helper()
	step := h.clock.Now().Unix()/totpPeriod + delta
	code, err := hotp.GenerateCodeCustom(secret, uint64(step), hotp.ValidateOpts{
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}
