package validation

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
)

func withLookup(t *testing.T, fn func(ctx context.Context, host string) ([]net.IP, error)) {
	t.Helper()
	original := lookupIP
	lookupIP = fn
	t.Cleanup(func() { lookupIP = original })
}

func withAllowPrivate(t *testing.T, enabled bool) {
	t.Helper()
	original := AllowPrivateEnabled()
	SetAllowPrivate(enabled)
	t.Cleanup(func() { SetAllowPrivate(original) })
}

func TestValidateAPIURL(t *testing.T) {
	withAllowPrivate(t, false)
	withLookup(t, func(ctx context.Context, host string) ([]net.IP, error) {
		switch host {
		case "api.mangiee.com":
			return []net.IP{net.ParseIP("203.0.114.10")}, nil
		case "intranet.example":
			return []net.IP{net.ParseIP("10.1.2.3")}, nil
		}
		return nil, errors.New("no such host")
	})

	tests := []struct {
		name      string
		url       string
		errorText string
	}{
		{"production", "https://api.mangiee.com", ""},
		{"with port and path", "https://api.mangiee.com:8443/v2", ""},
		{"localhost dev server", "http://localhost:5000", ""},
		{"loopback ip", "http://127.0.0.1:5000", ""},
		{"unresolvable host", "https://not-yet-live.example", ""},
		{"empty", "", "cannot be empty"},
		{"file scheme", "file:///etc/passwd", "only http and https"},
		{"no host", "http://", "hostname"},
		{"metadata host", "http://169.254.169.254/latest", "metadata"},
		{"metadata name", "http://metadata.google.internal", "metadata"},
		{"private ip", "http://192.168.1.20:5000", "private IP"},
		{"private domain", "https://intranet.example", "resolves to forbidden IP"},
		{"unspecified", "http://0.0.0.0", "unspecified"},
		{"too long", "https://api.mangiee.com/" + strings.Repeat("a", MaxURLLength), "maximum length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIURL(tt.url)
			if tt.errorText == "" {
				if err != nil {
					t.Fatalf("ValidateAPIURL(%q) = %v", tt.url, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errorText) {
				t.Fatalf("ValidateAPIURL(%q) = %v, want error containing %q", tt.url, err, tt.errorText)
			}
		})
	}
}

func TestValidateAPIURL_AllowPrivate(t *testing.T) {
	withAllowPrivate(t, true)

	if err := ValidateAPIURL("http://10.0.2.2:5000"); err != nil {
		t.Errorf("emulator host should be allowed: %v", err)
	}
	if err := ValidateAPIURL("http://169.254.169.254"); err == nil {
		t.Error("metadata endpoint must stay blocked")
	}
	if err := ValidateAPIURL("http://[fe80::1]"); err == nil {
		t.Error("link-local must stay blocked")
	}
}

func TestValidateImageURL(t *testing.T) {
	if err := ValidateImageURL("https://cdn.mangiee.com/items/1.jpg"); err != nil {
		t.Errorf("ValidateImageURL = %v", err)
	}
	if err := ValidateImageURL("ftp://cdn/x.jpg"); err == nil {
		t.Error("expected scheme error")
	}
}

func TestIsLocalhost(t *testing.T) {
	for _, h := range []string{"localhost", "LOCALHOST", "api.localhost", "::1", "127.0.0.1"} {
		if !isLocalhost(h) {
			t.Errorf("isLocalhost(%q) = false", h)
		}
	}
	if isLocalhost("localhost.example.com") {
		t.Error("localhost.example.com is not local")
	}
}
