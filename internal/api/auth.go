package api

import (
	"context"
	"net/http"
)

// SendOTP asks the backend to text a one-time password to phone. No token
// is required.
func (s AuthService) SendOTP(ctx context.Context, phone, token string) (*Envelope[OTPResponse], error) {
	return sendOTP(ctx, s, phone, token)
}

func sendOTP(ctx context.Context, r Requester, phone, token string) (*Envelope[OTPResponse], error) {
	body := map[string]any{"phone": phone}
	return call[OTPResponse](ctx, r, http.MethodPost, r.endpoints().SendOTP(), token, body)
}

// VerifyOTP exchanges phone and OTP for a session. The caller stores the
// returned token; this call never touches storage.
func (s AuthService) VerifyOTP(ctx context.Context, phone, otp, token string) (*Envelope[LoginResponse], error) {
	return verifyOTP(ctx, s, phone, otp, token)
}

func verifyOTP(ctx context.Context, r Requester, phone, otp, token string) (*Envelope[LoginResponse], error) {
	body := map[string]any{"phone": phone, "otp": otp}
	return call[LoginResponse](ctx, r, http.MethodPost, r.endpoints().VerifyOTP(), token, body)
}

// Register creates a restaurant account.
func (s AuthService) Register(ctx context.Context, profile ProfileUpdate, token string) (*Envelope[RegisterResponse], error) {
	return call[RegisterResponse](ctx, s, http.MethodPost, s.endpoints().Register(), token, profile.payload())
}

// Logout invalidates the session server-side.
func (s AuthService) Logout(ctx context.Context, token string) (*Envelope[MessageResponse], error) {
	return call[MessageResponse](ctx, s, http.MethodPost, s.endpoints().Logout(), token, map[string]any{})
}

// RefreshToken trades a still-valid token for a fresh one.
func (s AuthService) RefreshToken(ctx context.Context, token string) (*Envelope[TokenResponse], error) {
	return call[TokenResponse](ctx, s, http.MethodPost, s.endpoints().RefreshToken(), token, map[string]any{})
}
