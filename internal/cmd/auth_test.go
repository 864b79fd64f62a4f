package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginData = `{
	"restaurant": {"id": "65f1c0a2b3d4e5f6a7b8c9d0", "phone": "9876543210", "businessName": "Spice Hub", "isProfile": true},
	"token": "tok-abcdefgh1234",
	"isProfile": true
}`

func authHandler() *routeHandler {
	return newRouteHandler().
		On("POST", "/api/restaurant/send-otp", jsonResponse(200, `{"success": true, "message": "OTP sent successfully", "data": {"phone": "9876543210"}}`)).
		On("POST", "/api/restaurant/verify-otp", jsonResponse(200, envelope(loginData))).
		On("POST", "/api/restaurant/logout", jsonResponse(200, envelope(`{"message": "Logged out"}`)))
}

// signIn runs verify-otp so the keyring holds a session, then drops the
// env token so commands use the stored one.
func signIn(t *testing.T, profile string) {
	t.Helper()
	t.Setenv("MANGIEE_TOKEN", "")
	args := []string{"auth", "verify-otp", "--phone", "9876543210", "--otp", "1234"}
	if profile != "" {
		args = append(args, "--profile", profile)
	}
	captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), args))
	})
}

func TestAuthSendOTP(t *testing.T) {
	handler := authHandler()
	setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "send-otp", "--phone", "9876543210"}))
	})
	assert.Contains(t, output, "OTP sent successfully")

	req := handler.last(t, "POST", "/api/restaurant/send-otp")
	assert.Equal(t, "9876543210", req.JSON(t)["phone"])
	assert.Empty(t, req.Auth, "send-otp must not carry a token")
}

func TestAuthSendOTPRejectsBadPhone(t *testing.T) {
	handler := authHandler()
	setupTestEnvWithHandler(t, handler)

	var err error
	stderr := captureStderr(t, func() {
		err = Execute(context.Background(), []string{"auth", "send-otp", "--phone", "12345"})
	})
	require.Error(t, err)
	assert.Equal(t, exitUsage, ExitCode(err))
	assert.Contains(t, stderr, "10-digit")
	assert.Zero(t, handler.count("POST", "/api/restaurant/send-otp"))
}

func TestAuthVerifyOTPStoresSession(t *testing.T) {
	handler := authHandler()
	setupTestEnvWithHandler(t, handler)
	t.Setenv("MANGIEE_TOKEN", "")

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "verify-otp", "--phone", "9876543210", "--otp", "1234"}))
	})
	assert.Contains(t, output, "Signed in as Spice Hub")

	body := handler.last(t, "POST", "/api/restaurant/verify-otp").JSON(t)
	assert.Equal(t, "9876543210", body["phone"])
	assert.Equal(t, "1234", body["otp"])

	output = captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "status", "-o", "json"}))
	})
	status := decodeJSONObject(t, output)
	assert.Equal(t, true, status["authenticated"])
	assert.Equal(t, "default", status["profile"])
	assert.Equal(t, "Spice Hub", status["restaurant"])
	assert.Equal(t, "keychain", status["source"])
	assert.Equal(t, "tok-********1234", status["token"])
}

func TestAuthVerifyOTPIncompleteProfile(t *testing.T) {
	handler := newRouteHandler().
		On("POST", "/api/restaurant/verify-otp", jsonResponse(200, envelope(`{
			"restaurant": {"id": "r1", "phone": "9876543210"},
			"token": "tok-abcdefgh1234",
			"isProfile": false
		}`)))
	setupTestEnvWithHandler(t, handler)
	t.Setenv("MANGIEE_TOKEN", "")

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "verify-otp", "--phone", "9876543210", "--otp", "1234"}))
	})
	assert.Contains(t, output, "Signed in as 9876543210")
	assert.Contains(t, output, "mangiee auth register")
}

func TestAuthVerifyOTPWrongCode(t *testing.T) {
	handler := newRouteHandler().
		On("POST", "/api/restaurant/verify-otp", jsonResponse(400, `{"success": false, "message": "Invalid OTP"}`))
	setupTestEnvWithHandler(t, handler)
	t.Setenv("MANGIEE_TOKEN", "")

	var err error
	stderr := captureStderr(t, func() {
		err = Execute(context.Background(), []string{"auth", "verify-otp", "--phone", "9876543210", "--otp", "9999"})
	})
	require.Error(t, err)
	assert.Contains(t, stderr, "Invalid OTP")

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "status"}))
	})
	assert.Contains(t, output, "Not signed in")
}

func TestAuthStatusEnvToken(t *testing.T) {
	setupTestEnvWithHandler(t, newRouteHandler())
	t.Setenv("MANGIEE_TOKEN", "env-token-5678")

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "status"}))
	})
	assert.Contains(t, output, "Signed in")
	assert.Contains(t, output, "Source: env")
	assert.Contains(t, output, "env-******5678")
}

func TestAuthLogout(t *testing.T) {
	handler := authHandler()
	setupTestEnvWithHandler(t, handler)
	signIn(t, "")

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "logout"}))
	})
	assert.Contains(t, output, "Signed out of profile default")
	assert.Equal(t, "Bearer tok-abcdefgh1234", handler.last(t, "POST", "/api/restaurant/logout").Auth)

	output = captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "status", "-o", "json"}))
	})
	assert.Equal(t, false, decodeJSONObject(t, output)["authenticated"])
}

func TestAuthLogoutServerFailureStillClearsSession(t *testing.T) {
	handler := authHandler().
		On("POST", "/api/restaurant/logout", jsonResponse(500, `{"success": false, "message": "boom"}`))
	setupTestEnvWithHandler(t, handler)
	signIn(t, "")

	captureStderr(t, func() {
		captureStdout(t, func() {
			require.NoError(t, Execute(context.Background(), []string{"auth", "logout"}))
		})
	})

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "status"}))
	})
	assert.Contains(t, output, "Not signed in")
}

func TestAuthLogoutLocal(t *testing.T) {
	handler := authHandler()
	setupTestEnvWithHandler(t, handler)
	signIn(t, "")

	captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "logout", "--local"}))
	})
	assert.Zero(t, handler.count("POST", "/api/restaurant/logout"))
}

func TestAuthLogoutWithoutSession(t *testing.T) {
	setupTestEnvWithHandler(t, authHandler())
	t.Setenv("MANGIEE_TOKEN", "")

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "logout", "-o", "json"}))
	})
	assert.Equal(t, false, decodeJSONObject(t, output)["logged_out"])
}

func TestAuthProfilesAndSwitch(t *testing.T) {
	setupTestEnvWithHandler(t, authHandler())
	signIn(t, "")
	signIn(t, "kitchen2")

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "profiles", "-o", "json"}))
	})
	got := decodeJSONObject(t, output)
	assert.Equal(t, "kitchen2", got["current"])
	assert.ElementsMatch(t, []any{"default", "kitchen2"}, got["profiles"])

	output = captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "switch", "default"}))
	})
	assert.Contains(t, output, "Switched to profile default")

	output = captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "profiles"}))
	})
	assert.Contains(t, output, "* default")
	assert.Contains(t, output, "  kitchen2")
}

func TestAuthSwitchUnknownProfile(t *testing.T) {
	setupTestEnvWithHandler(t, authHandler())

	var err error
	captureStderr(t, func() {
		err = Execute(context.Background(), []string{"auth", "switch", "nope"})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `profile "nope" is not signed in`)
}

func TestAuthLoginRequiresOTPWithoutPrompt(t *testing.T) {
	handler := authHandler()
	setupTestEnvWithHandler(t, handler)

	var err error
	captureStderr(t, func() {
		err = Execute(context.Background(), []string{"auth", "login", "--phone", "9876543210", "--no-input"})
	})
	require.Error(t, err)
	assert.Equal(t, exitUsage, ExitCode(err))
	assert.Zero(t, handler.count("POST", "/api/restaurant/send-otp"))
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "***", maskToken("abc"))
	assert.Equal(t, "abcd****wxyz", maskToken("abcd1234wxyz"))
}
