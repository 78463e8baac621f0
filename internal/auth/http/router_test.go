package http_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	authhttp "github.com/aussiebroadwan/tollgate/internal/auth/http"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

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

type testServer struct {
	*httptest.Server
	client *authsdk.SDKClient
	clock  *clock
	tokens *jwtx.Codec
	store  store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	clk := &clock{now: time.Unix(1_700_000_010, 0).UTC()}

	tokens, err := jwtx.NewCodec(jwtx.Options{Secret: []byte("http-test-secret"), Issuer: "tollgate", Now: clk.Now})
	require.NoError(t, err)
	box, err := cryptox.NewSecretBox([]byte("http-test-key"))
	require.NoError(t, err)

	creds := &service.CredentialService{
		Store: st,
		Hasher: &cryptox.PasswordHasher{Params: cryptox.Argon2Params{
			Memory: 64, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16,
		}},
		Now: clk.Now,
	}
	codes := &service.BackupCodeService{Store: st, Credentials: creds, Now: clk.Now}
	factors := &service.TOTPService{Store: st, Box: box, Credentials: creds, BackupCodes: codes, Issuer: "Tollgate", Now: clk.Now}

	router := authhttp.NewRouter("test", st, slogx.Discard())
	router.Gate = &service.AuthGate{Store: st, Tokens: tokens}
	router.TOTP = factors
	router.BackupCodes = codes
	router.Accounts = &service.AccountService{
		Store:       st,
		Credentials: creds,
		TOTP:        factors,
		BackupCodes: codes,
		Tokens:      tokens,
		Now:         clk.Now,
	}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, client: authsdk.NewSDKClient(srv.URL), clock: clk, tokens: tokens, store: st}
}

func (s *testServer) registerAlice(t *testing.T) *authsdk.Session {
	t.Helper()
	sess, err := s.client.Register(context.Background(), authsdk.RegisterRequest{
		Username:  "alice",
		Email:     "alice@x.com",
		Password:  "Abc123!",
		FirstName: "Alice",
		LastName:  "Liddell",
	})
	require.NoError(t, err)
	return sess
}

func (s *testServer) totpCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, s.clock.Now())
	require.NoError(t, err)
	return code
}

// outsideWindow returns a six digit code that matches none of the steps
// currently accepted for secret.
func (s *testServer) outsideWindow(t *testing.T, secret string) string {
	t.Helper()
	accepted := make(map[string]bool)
	for delta := -2; delta <= 2; delta++ {
		code, err := totp.GenerateCode(secret, s.clock.Now().Add(time.Duration(delta)*30*time.Second))
		require.NoError(t, err)
		accepted[code] = true
	}
	for i := 0; ; i++ {
		candidate := fmt.Sprintf("%06d", i)
		if !accepted[candidate] {
			return candidate
		}
	}
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	sess := s.registerAlice(t)
	require.NotEmpty(t, sess.Token())
	require.Equal(t, "alice", sess.User().Username)
	require.Equal(t, "Alice Liddell", sess.User().FullName)

	_, err := s.client.Register(ctx, authsdk.RegisterRequest{
		Username: "alice", Email: "other@x.com", Password: "Abc123!", FirstName: "A", LastName: "B",
	})
	require.ErrorIs(t, err, authsdk.ErrAlreadyExists)

	_, err = s.client.Register(ctx, authsdk.RegisterRequest{Username: "x"})
	var valErr *authsdk.ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Contains(t, valErr.Details, "username")
	require.Contains(t, valErr.Details, "email")

	login, err := s.client.Login(ctx, authsdk.LoginRequest{Login: "alice@x.com", Password: "Abc123!"})
	require.NoError(t, err)
	require.Equal(t, []string{jwtx.AMRPassword}, login.AMR())
	require.Equal(t, s.clock.Now().Add(jwtx.DefaultTTL).Unix(), login.ExpiresAt().Unix())

	me, err := login.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice@x.com", me.Email)
	require.NotNil(t, me.TOTP)
	require.False(t, me.TOTP.IsEnabled)
	require.NotNil(t, me.LastLoginAt)
}

func TestLoginLockout(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	s.registerAlice(t)

	for i := 0; i < 5; i++ {
		_, err := s.client.Login(ctx, authsdk.LoginRequest{Login: "alice", Password: "wrong!"})
		require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)
	}

	_, err := s.client.Login(ctx, authsdk.LoginRequest{Login: "alice", Password: "Abc123!"})
	require.ErrorIs(t, err, authsdk.ErrAccountLocked)

	s.clock.Advance(2*time.Hour + time.Second)
	_, err = s.client.Login(ctx, authsdk.LoginRequest{Login: "alice", Password: "Abc123!"})
	require.NoError(t, err)
}

func TestRequireAuth(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	for name, header := range map[string]string{
		"missing":    "",
		"wrong case": "bearer abc",
		"garbage":    "Bearer abc",
	} {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL+"/v1/users/me", nil)
		require.NoError(t, err)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, name)
		require.Equal(t, `Bearer error="invalid_token"`, resp.Header.Get("WWW-Authenticate"), name)
	}

	sess := s.registerAlice(t)
	s.clock.Advance(jwtx.DefaultTTL + time.Second)
	_, err := sess.Me(ctx)
	require.ErrorIs(t, err, authsdk.ErrInvalidToken, "expired token")
}

func TestSessionInfo(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	info, err := s.client.SessionInfo(ctx, "")
	require.NoError(t, err)
	require.False(t, info.Authenticated)
	require.Nil(t, info.User)

	info, err = s.client.SessionInfo(ctx, "not-a-token")
	require.NoError(t, err)
	require.False(t, info.Authenticated)

	sess := s.registerAlice(t)
	info, err = sess.Info(ctx)
	require.NoError(t, err)
	require.True(t, info.Authenticated)
	require.Equal(t, "alice", info.User.Username)

	require.NoError(t, sess.Logout(ctx))
	require.Empty(t, sess.Token())
}

func TestProfileManagement(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess := s.registerAlice(t)

	_, err := s.client.Register(ctx, authsdk.RegisterRequest{
		Username: "bob", Email: "bob@x.com", Password: "hunter22", FirstName: "Bob", LastName: "Builder",
	})
	require.NoError(t, err)

	first := "Alicia"
	user, err := sess.UpdateProfile(ctx, authsdk.UpdateProfileRequest{FirstName: &first})
	require.NoError(t, err)
	require.Equal(t, "Alicia Liddell", user.FullName)

	taken := "bob@x.com"
	_, err = sess.UpdateProfile(ctx, authsdk.UpdateProfileRequest{Email: &taken})
	require.ErrorIs(t, err, authsdk.ErrAlreadyExists)

	require.ErrorIs(t, sess.ChangePassword(ctx, "nope", "n3wPass"), authsdk.ErrInvalidPassword)
	require.NoError(t, sess.ChangePassword(ctx, "Abc123!", "n3wPass"))

	_, err = s.client.Login(ctx, authsdk.LoginRequest{Login: "alice", Password: "n3wPass"})
	require.NoError(t, err)

	require.ErrorIs(t, sess.DeleteAccount(ctx, "Abc123!"), authsdk.ErrInvalidPassword)
	require.NoError(t, sess.DeleteAccount(ctx, "n3wPass"))

	_, err = sess.Me(ctx)
	require.ErrorIs(t, err, authsdk.ErrAccountDisabled)

	_, err = s.client.Login(ctx, authsdk.LoginRequest{Login: "alice", Password: "n3wPass"})
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)

	// The deleted identity is free again.
	s.registerAlice(t)
}

func TestTOTPFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess := s.registerAlice(t)

	_, err := sess.VerifyTOTP(ctx, "123456")
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	setup, err := sess.SetupTOTP(ctx)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(setup.OTPAuthURL, "otpauth://totp/Tollgate:alice"))
	require.True(t, strings.HasPrefix(setup.QRCode, "data:image/png;base64,"))
	require.Len(t, setup.BackupCodes, 10)

	_, err = sess.VerifyTOTP(ctx, "12345")
	var valErr *authsdk.ValidationError
	require.ErrorAs(t, err, &valErr)

	out, err := sess.VerifyTOTP(ctx, s.totpCode(t, setup.Secret))
	require.NoError(t, err)
	require.True(t, out.Enabled)

	_, err = sess.SetupTOTP(ctx)
	require.ErrorIs(t, err, authsdk.NewAPIError(http.StatusConflict, authsdk.ErrorCodeAlreadyExists, ""))

	st, err := sess.TOTPStatus(ctx)
	require.NoError(t, err)
	require.True(t, st.IsEnabled)
	require.Equal(t, 10, st.UnusedBackupCodes)

	// Login now needs a second factor.
	_, err = s.client.Login(ctx, authsdk.LoginRequest{Login: "alice", Password: "Abc123!"})
	require.ErrorIs(t, err, authsdk.ErrMFARequired)

	s.clock.Advance(30 * time.Second)
	mfa, err := s.client.Login(ctx, authsdk.LoginRequest{Login: "alice", Password: "Abc123!", TOTPCode: s.totpCode(t, setup.Secret)})
	require.NoError(t, err)
	require.Equal(t, []string{jwtx.AMRPassword, jwtx.AMROTP, jwtx.AMRMFA}, mfa.AMR())

	bak, err := s.client.Login(ctx, authsdk.LoginRequest{Login: "alice", Password: "Abc123!", BackupCode: strings.ToLower(setup.BackupCodes[0])})
	require.NoError(t, err)
	require.Equal(t, []string{jwtx.AMRPassword, jwtx.AMRBackup, jwtx.AMRMFA}, bak.AMR())

	res, err := sess.VerifyBackupCode(ctx, setup.BackupCodes[1])
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, 8, res.Remaining)

	_, err = sess.VerifyBackupCode(ctx, setup.BackupCodes[1])
	require.ErrorIs(t, err, authsdk.ErrInvalidCode)

	fresh, err := sess.RegenerateBackupCodes(ctx, "Abc123!")
	require.NoError(t, err)
	require.Len(t, fresh, 10)

	_, err = sess.VerifyBackupCode(ctx, setup.BackupCodes[2])
	require.ErrorIs(t, err, authsdk.ErrInvalidCode)

	// Disabling takes the password, not a code.
	require.ErrorIs(t, sess.DisableTOTP(ctx, s.totpCode(t, setup.Secret)), authsdk.ErrInvalidPassword)
	require.NoError(t, sess.DisableTOTP(ctx, "Abc123!"))

	_, err = s.client.Login(ctx, authsdk.LoginRequest{Login: "alice", Password: "Abc123!"})
	require.NoError(t, err)
}

func TestTOTPFactorLock(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess := s.registerAlice(t)

	setup, err := sess.SetupTOTP(ctx)
	require.NoError(t, err)

	good := s.totpCode(t, setup.Secret)
	bad := s.outsideWindow(t, setup.Secret)

	for i := 0; i < 5; i++ {
		_, err := sess.VerifyTOTP(ctx, bad)
		require.ErrorIs(t, err, authsdk.ErrInvalidCode)
	}

	_, err = sess.VerifyTOTP(ctx, good)
	require.ErrorIs(t, err, authsdk.ErrFactorLocked)
}

func TestTOTPVerifyPaddedCode(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	sess := s.registerAlice(t)

	setup, err := sess.SetupTOTP(ctx)
	require.NoError(t, err)

	out, err := sess.VerifyTOTP(ctx, " "+s.totpCode(t, setup.Secret)+"\t")
	require.NoError(t, err)
	require.True(t, out.Enabled)

	// Padding never counts as a failure, however often it is sent.
	for i := 0; i < 6; i++ {
		s.clock.Advance(30 * time.Second)
		_, err := sess.VerifyTOTP(ctx, " "+s.totpCode(t, setup.Secret))
		require.NoError(t, err)
	}

	f, err := s.store.SecondFactors().GetSecondFactor(ctx, sess.User().ID)
	require.NoError(t, err)
	require.True(t, f.IsEnabled)
	require.Zero(t, f.FailedAttempts)
	require.Nil(t, f.LockedUntil)

	st, err := sess.TOTPStatus(ctx)
	require.NoError(t, err)
	require.True(t, st.IsEnabled)

	s.clock.Advance(30 * time.Second)
	_, err = s.client.Login(ctx, authsdk.LoginRequest{Login: "alice", Password: "Abc123!", TOTPCode: " " + s.totpCode(t, setup.Secret)})
	require.NoError(t, err)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	live, err := s.client.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := s.client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "disabled", ready.Checks.Replay)

	resp, err := http.Get(s.URL + "/swagger/doc.json")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
