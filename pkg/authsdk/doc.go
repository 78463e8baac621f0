/*
Package authsdk is the client SDK for the tollgate identity service, and the
home of the request, response and error types the server writes.

# SDKClient vs Session

SDKClient performs the calls that need no token and creates Sessions:

	client := authsdk.NewSDKClient("https://auth.example.com")

	session, err := client.Login(ctx, authsdk.LoginRequest{
		Login:    "alice",
		Password: "Abc123!",
	})
	if errors.Is(err, authsdk.ErrMFARequired) {
		session, err = client.Login(ctx, authsdk.LoginRequest{
			Login:    "alice",
			Password: "Abc123!",
			TOTPCode: code,
		})
	}

A Session carries the bearer token and performs account and TOTP calls:

	me, err := session.Me(ctx)
	setup, err := session.SetupTOTP(ctx)
	_, err = session.VerifyTOTP(ctx, code)

# Errors

Failed calls return an *APIError, or a *ValidationError when the server
rejected individual fields. APIError values compare with errors.Is against
the predefined errors by status and code:

	if errors.Is(err, authsdk.ErrAccountLocked) {
		// wait and retry later
	}

Tokens are not refreshed. When a call fails with ErrInvalidToken the caller
has to log in again.
*/
package authsdk
