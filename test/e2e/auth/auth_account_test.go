package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestRegisterLoginAndProfile walks an account through its normal life.
func TestRegisterLoginAndProfile(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	registerUser(t, client, "alice", "Alice123!")

	// Login works with username and with email.
	session, err := client.Login(t.Context(), authsdk.LoginRequest{Login: "alice", Password: "Alice123!"})
	require.NoError(t, err)
	require.Equal(t, []string{"pwd"}, session.AMR())

	_, err = client.Login(t.Context(), authsdk.LoginRequest{Login: "ALICE@example.com", Password: "Alice123!"})
	require.NoError(t, err)

	me, err := session.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, "Alice Tester", me.FullName)
	require.False(t, me.TOTP.IsEnabled)

	last := "Liddell"
	me, err = session.UpdateProfile(t.Context(), authsdk.UpdateProfileRequest{LastName: &last})
	require.NoError(t, err)
	require.Equal(t, "Alice Liddell", me.FullName)

	require.NoError(t, session.ChangePassword(t.Context(), "Alice123!", "Alice456!"))

	_, err = client.Login(t.Context(), authsdk.LoginRequest{Login: "alice", Password: "Alice123!"})
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)

	_, err = client.Login(t.Context(), authsdk.LoginRequest{Login: "alice", Password: "Alice456!"})
	require.NoError(t, err)

	t.Logf("Account lifecycle completed for %s", me.ID)
}

// TestDuplicateRegistration verifies username and email uniqueness.
func TestDuplicateRegistration(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	registerUser(t, client, "bob", "Bob12345")

	_, err := client.Register(t.Context(), authsdk.RegisterRequest{
		Username: "bob", Email: "other@example.com", Password: "Bob12345", FirstName: "Bob", LastName: "Two",
	})
	require.ErrorIs(t, err, authsdk.ErrAlreadyExists)

	_, err = client.Register(t.Context(), authsdk.RegisterRequest{
		Username: "bobby", Email: "BOB@example.com", Password: "Bob12345", FirstName: "Bob", LastName: "Two",
	})
	require.ErrorIs(t, err, authsdk.ErrAlreadyExists)
}

// TestLoginLockout verifies five failures lock the account.
func TestLoginLockout(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	registerUser(t, client, "carol", "Carol123")

	for i := 0; i < 5; i++ {
		_, err := client.Login(t.Context(), authsdk.LoginRequest{Login: "carol", Password: "nope!!"})
		require.ErrorIs(t, err, authsdk.ErrInvalidCredentials, "attempt %d", i+1)
	}

	_, err := client.Login(t.Context(), authsdk.LoginRequest{Login: "carol", Password: "Carol123"})
	require.ErrorIs(t, err, authsdk.ErrAccountLocked)

	t.Logf("Account locked after 5 failed attempts")
}

// TestDeleteAccount verifies a deleted account loses access and frees its identity.
func TestDeleteAccount(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	session := registerUser(t, client, "dave", "Dave1234")

	require.NoError(t, session.DeleteAccount(t.Context(), "Dave1234"))

	_, err := session.Me(t.Context())
	require.ErrorIs(t, err, authsdk.ErrAccountDisabled)

	_, err = client.Login(t.Context(), authsdk.LoginRequest{Login: "dave", Password: "Dave1234"})
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)

	registerUser(t, client, "dave", "Dave5678")
}
