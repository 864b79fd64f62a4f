package config

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/99designs/keyring"

	"github.com/mangiee/restaurant-cli/internal/api"
)

func testKeyring(t *testing.T, initial []keyring.Item) *keyring.ArrayKeyring {
	t.Helper()
	return keyring.NewArrayKeyring(initial)
}

// withMockKeyring sets up a mock keyring for the duration of a test
func withMockKeyring(t *testing.T, ring keyring.Keyring) {
	t.Helper()
	t.Cleanup(SetOpenKeyring(func(cfg keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	}))
}

// withFailingKeyring sets up a keyring that always fails to open
func withFailingKeyring(t *testing.T, err error) {
	t.Helper()
	t.Cleanup(SetOpenKeyring(func(cfg keyring.Config) (keyring.Keyring, error) {
		return nil, err
	}))
}

func sampleSession() Session {
	return Session{
		BaseURL: "https://api.mangiee.com",
		Token:   "tok-123",
		User: &api.RestaurantProfile{
			ID:           "r1",
			Phone:        "9876543210",
			BusinessName: "Annapurna Mess",
			IsProfile:    true,
		},
		LastRoute: "/(tabs)/menu",
	}
}

func TestProfileKey(t *testing.T) {
	tests := []struct {
		profile  string
		expected string
	}{
		{"", sessionKey},
		{"default", sessionKey},
		{"koramangala", profilePrefix + "koramangala"},
	}
	for _, tt := range tests {
		if got := profileKey(tt.profile); got != tt.expected {
			t.Errorf("profileKey(%q) = %q, want %q", tt.profile, got, tt.expected)
		}
	}
}

func TestNormalizeProfiles(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"empty list", []string{}, nil},
		{"duplicates removed", []string{"default", "hsr", "default", "hsr"}, []string{"default", "hsr"}},
		{"whitespace trimmed", []string{" default ", "  hsr  "}, []string{"default", "hsr"}},
		{"blank entries removed", []string{"default", "", "  "}, []string{"default"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeProfiles(tt.input)
			if strings.Join(got, ",") != strings.Join(tt.expected, ",") || len(got) != len(tt.expected) {
				t.Errorf("normalizeProfiles(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadProfileIndex(t *testing.T) {
	ring := testKeyring(t, nil)
	profiles, err := loadProfileIndex(ring)
	if err != nil || len(profiles) != 0 {
		t.Fatalf("empty index = %v, %v", profiles, err)
	}

	_ = ring.Set(keyring.Item{Key: profileIndexKey, Data: []byte(`["default","hsr"]`)})
	profiles, err = loadProfileIndex(ring)
	if err != nil || len(profiles) != 2 || profiles[1] != "hsr" {
		t.Fatalf("index = %v, %v", profiles, err)
	}

	_ = ring.Set(keyring.Item{Key: profileIndexKey, Data: []byte(`{bad`)})
	if _, err := loadProfileIndex(ring); err == nil {
		t.Fatal("expected error for corrupt index")
	}
}

func TestErrNotConfigured(t *testing.T) {
	if !strings.Contains(ErrNotConfigured.Error(), "mangiee auth login") {
		t.Errorf("ErrNotConfigured = %q", ErrNotConfigured.Error())
	}
}

func TestKeyringConfig(t *testing.T) {
	t.Setenv(envKeyringBackend, "")
	t.Setenv(envCredentialsDir, "")

	cfg := keyringConfig()
	if cfg.ServiceName != serviceName {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, serviceName)
	}
	if cfg.FileDir == "" {
		t.Error("FileDir should be configured in auto backend mode")
	}
	if cfg.FilePasswordFunc == nil {
		t.Error("FilePasswordFunc should be configured in auto backend mode")
	}
}

func TestKeyringConfig_FileBackendOverride(t *testing.T) {
	t.Setenv(envKeyringBackend, "file")
	base := t.TempDir()
	t.Setenv(envCredentialsDir, base)

	cfg := keyringConfig()
	if len(cfg.AllowedBackends) != 1 || cfg.AllowedBackends[0] != keyring.FileBackend {
		t.Fatalf("AllowedBackends = %v, want [%s]", cfg.AllowedBackends, keyring.FileBackend)
	}
	if want := filepath.Join(base, "keyring"); cfg.FileDir != want {
		t.Fatalf("FileDir = %q, want %q", cfg.FileDir, want)
	}
}

func TestKeyringConfig_SystemBackendOverride(t *testing.T) {
	t.Setenv(envKeyringBackend, "system")

	cfg := keyringConfig()
	if cfg.FileDir != "" || cfg.FilePasswordFunc != nil || len(cfg.AllowedBackends) != 0 {
		t.Fatalf("system backend should leave file settings empty, got %+v", cfg)
	}
}

func TestShouldForceFileBackend(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		backend  string
		dbusAddr string
		want     bool
	}{
		{"explicit file backend", "darwin", keyringBackendFile, "ignored", true},
		{"headless linux", "linux", keyringBackendAuto, "", true},
		{"linux desktop", "linux", keyringBackendAuto, "unix:path=/run/user/1000/bus", false},
		{"system backend", "linux", keyringBackendSystem, "", false},
		{"non-linux auto", "windows", keyringBackendAuto, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldForceFileBackend(tt.goos, tt.backend, tt.dbusAddr); got != tt.want {
				t.Fatalf("shouldForceFileBackend(%q, %q, %q) = %v, want %v", tt.goos, tt.backend, tt.dbusAddr, got, tt.want)
			}
		})
	}
}

func TestKeyringBackendMode(t *testing.T) {
	tests := map[string]string{
		"":       keyringBackendAuto,
		"file":   keyringBackendFile,
		"SYSTEM": keyringBackendSystem,
		"native": keyringBackendSystem,
		"weird":  keyringBackendAuto,
	}
	for value, want := range tests {
		t.Setenv(envKeyringBackend, value)
		if got := keyringBackendMode(); got != want {
			t.Errorf("keyringBackendMode(%q) = %q, want %q", value, got, want)
		}
	}
}

func TestKeyringFileDir_DefaultsToUserConfigDir(t *testing.T) {
	t.Setenv(envCredentialsDir, "")

	fakeConfigDir := t.TempDir()
	original := userConfigDir
	userConfigDir = func() (string, error) { return fakeConfigDir, nil }
	t.Cleanup(func() { userConfigDir = original })

	want := filepath.Join(fakeConfigDir, serviceName, "keyring")
	if got := keyringFileDir(); got != want {
		t.Fatalf("keyringFileDir() = %q, want %q", got, want)
	}
}

func TestKeyringFilePassword(t *testing.T) {
	t.Setenv(envKeyringPassword, "env-pass")
	password, err := keyringFilePassword("prompt")
	if err != nil || password != "env-pass" {
		t.Fatalf("keyringFilePassword() = %q, %v", password, err)
	}

	t.Setenv(envKeyringPassword, "")
	original := stdinHasTTY
	stdinHasTTY = func() bool { return false }
	t.Cleanup(func() { stdinHasTTY = original })

	_, err = keyringFilePassword("prompt")
	if err == nil || !strings.Contains(err.Error(), envKeyringPassword) {
		t.Fatalf("expected error mentioning %s, got %v", envKeyringPassword, err)
	}
}

func TestSaveAndLoadSession(t *testing.T) {
	ring := testKeyring(t, nil)
	withMockKeyring(t, ring)

	if err := SaveSession("hsr", sampleSession()); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, err := LoadSession("hsr")
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if got.Token != "tok-123" || got.User == nil || got.User.BusinessName != "Annapurna Mess" {
		t.Errorf("Unexpected session %+v", got)
	}
	if got.SavedAt.IsZero() {
		t.Error("SavedAt should be stamped")
	}
	if got.LastRoute != "/(tabs)/menu" {
		t.Errorf("LastRoute = %q", got.LastRoute)
	}

	current, _ := CurrentProfile()
	if current != "hsr" {
		t.Errorf("current profile = %q, want hsr", current)
	}
	profiles, _ := ListProfiles()
	if len(profiles) != 1 || profiles[0] != "hsr" {
		t.Errorf("profiles = %v", profiles)
	}
}

func TestSaveSessionDropsRouteWithoutUser(t *testing.T) {
	ring := testKeyring(t, nil)
	withMockKeyring(t, ring)

	s := sampleSession()
	s.User = nil
	if err := SaveSession("", s); err != nil {
		t.Fatal(err)
	}

	item, err := ring.Get(sessionKey)
	if err != nil {
		t.Fatal(err)
	}
	var stored Session
	if err := json.Unmarshal(item.Data, &stored); err != nil {
		t.Fatal(err)
	}
	if stored.LastRoute != "" {
		t.Errorf("route must not be persisted without a user, got %q", stored.LastRoute)
	}
}

func TestLoadSessionErrors(t *testing.T) {
	ring := testKeyring(t, []keyring.Item{
		{Key: profilePrefix + "broken", Data: []byte("{not json")},
		{Key: profilePrefix + "empty", Data: []byte(`{"token":""}`)},
	})
	withMockKeyring(t, ring)

	if _, err := LoadSession("missing"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("missing profile: got %v", err)
	}
	if _, err := LoadSession("empty"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("empty token: got %v", err)
	}
	if _, err := LoadSession("broken"); err == nil || errors.Is(err, ErrNotConfigured) {
		t.Errorf("corrupt profile: got %v", err)
	}
}

func TestKeyringErrors(t *testing.T) {
	withFailingKeyring(t, errors.New("keyring unavailable"))

	if err := SaveSession("x", sampleSession()); err == nil {
		t.Error("SaveSession should fail")
	}
	if _, err := LoadSession("x"); err == nil {
		t.Error("LoadSession should fail")
	}
	if err := DeleteSession("x"); err == nil {
		t.Error("DeleteSession should fail")
	}
	if _, err := ListProfiles(); err == nil {
		t.Error("ListProfiles should fail")
	}
	if _, err := CurrentProfile(); err == nil {
		t.Error("CurrentProfile should fail")
	}
	if err := SetCurrentProfile("x"); err == nil {
		t.Error("SetCurrentProfile should fail")
	}
}

func TestDeleteSessionSwitchesCurrentProfile(t *testing.T) {
	ring := testKeyring(t, nil)
	withMockKeyring(t, ring)

	_ = SaveSession("indiranagar", sampleSession())
	_ = SaveSession("hsr", sampleSession())

	if err := DeleteSession("hsr"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := LoadSession("hsr"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("deleted session still loads: %v", err)
	}
	current, _ := CurrentProfile()
	if current != "indiranagar" {
		t.Errorf("current = %q, want indiranagar", current)
	}

	// Deleting an unknown profile is not an error.
	if err := DeleteSession("nope"); err != nil {
		t.Errorf("DeleteSession(nope) = %v", err)
	}
}

func TestLoadCurrentSession(t *testing.T) {
	ring := testKeyring(t, nil)
	withMockKeyring(t, ring)

	_ = SaveSession("hsr", sampleSession())
	other := sampleSession()
	other.Token = "tok-other"
	_ = SaveSession("indiranagar", other)

	t.Setenv("MANGIEE_PROFILE", "")
	got, err := LoadCurrentSession()
	if err != nil || got.Token != "tok-other" {
		t.Fatalf("LoadCurrentSession = %+v, %v", got, err)
	}

	t.Setenv("MANGIEE_PROFILE", "hsr")
	got, err = LoadCurrentSession()
	if err != nil || got.Token != "tok-123" {
		t.Fatalf("env override = %+v, %v", got, err)
	}
	if !HasSession() {
		t.Error("HasSession should be true")
	}
}

func TestListProfilesLegacyDefault(t *testing.T) {
	ring := testKeyring(t, []keyring.Item{{Key: sessionKey, Data: []byte(`{"token":"t"}`)}})
	withMockKeyring(t, ring)

	profiles, err := ListProfiles()
	if err != nil || len(profiles) != 1 || profiles[0] != defaultProfile {
		t.Fatalf("ListProfiles = %v, %v", profiles, err)
	}
}

func TestKeyringBackend(t *testing.T) {
	ring := testKeyring(t, nil)
	withMockKeyring(t, ring)

	backend := KeyringBackend{Profile: "hsr"}
	got, err := backend.Load()
	if err != nil || got != nil {
		t.Fatalf("empty Load = %+v, %v", got, err)
	}

	if err := backend.Save(sampleSession()); err != nil {
		t.Fatal(err)
	}
	got, err = backend.Load()
	if err != nil || got == nil || got.Token != "tok-123" {
		t.Fatalf("Load = %+v, %v", got, err)
	}

	if err := backend.Clear(); err != nil {
		t.Fatal(err)
	}
	got, _ = backend.Load()
	if got != nil {
		t.Errorf("expected nil after Clear, got %+v", got)
	}
}
