package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/99designs/keyring"

	"github.com/mangiee/restaurant-cli/internal/api"
)

const (
	serviceName       = "mangiee-cli"
	sessionKey        = "session"
	defaultProfile    = "default"
	profilePrefix     = "session:"
	profileIndexKey   = "profiles_index"
	currentProfileKey = "current_profile"

	envKeyringBackend  = "MANGIEE_KEYRING_BACKEND"
	envKeyringPassword = "MANGIEE_KEYRING_PASSWORD"
	envCredentialsDir  = "MANGIEE_CREDENTIALS_DIR"

	keyringBackendAuto   = "auto"
	keyringBackendFile   = "file"
	keyringBackendSystem = "system"
)

// openKeyring is a package-level function for opening keyrings.
// It can be replaced in tests to use a mock keyring.
var openKeyring = func(cfg keyring.Config) (keyring.Keyring, error) {
	return keyring.Open(cfg)
}

var userConfigDir = os.UserConfigDir

var stdinHasTTY = func() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// SetOpenKeyring allows replacing the keyring opener for testing.
// Returns a cleanup function that restores the original.
func SetOpenKeyring(fn func(keyring.Config) (keyring.Keyring, error)) func() {
	original := openKeyring
	openKeyring = fn
	return func() { openKeyring = original }
}

// Session is the persisted slice of the auth state: who is signed in, with
// which token, against which API origin. LastRoute is only kept while a
// user and token are both present.
type Session struct {
	BaseURL   string                 `json:"base_url,omitempty"`
	Token     string                 `json:"token"`
	User      *api.RestaurantProfile `json:"user,omitempty"`
	LastRoute string                 `json:"last_route,omitempty"`
	SavedAt   time.Time              `json:"saved_at"`
}

// ErrNotConfigured is returned when no session is stored
var ErrNotConfigured = errors.New("not signed in - run 'mangiee auth login' first")

// keyringConfig returns the keyring configuration
func keyringConfig() keyring.Config {
	cfg := keyring.Config{
		ServiceName: serviceName,
	}

	backend := keyringBackendMode()
	if backend == keyringBackendSystem {
		return cfg
	}

	// Auto mode still needs file details so keyring.Open can fall through to
	// encrypted file storage when no native backend exists.
	configureFileBackend(&cfg)

	// Headless Linux has no secret service; go straight to the file backend.
	if shouldForceFileBackend(runtime.GOOS, backend, os.Getenv("DBUS_SESSION_BUS_ADDRESS")) {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}

	return cfg
}

func keyringBackendMode() string {
	switch strings.ToLower(firstNonBlankEnv(envKeyringBackend)) {
	case keyringBackendFile:
		return keyringBackendFile
	case keyringBackendSystem, "os", "native":
		return keyringBackendSystem
	default:
		return keyringBackendAuto
	}
}

func shouldForceFileBackend(goos, backend, dbusAddr string) bool {
	if backend == keyringBackendFile {
		return true
	}
	if backend != keyringBackendAuto {
		return false
	}
	return goos == "linux" && strings.TrimSpace(dbusAddr) == ""
}

func configureFileBackend(cfg *keyring.Config) {
	cfg.FileDir = keyringFileDir()
	cfg.FilePasswordFunc = keyringFilePassword
}

func keyringFileDir() string {
	base := firstNonBlankEnv(envCredentialsDir)
	if base == "" {
		if dir, err := userConfigDir(); err == nil && strings.TrimSpace(dir) != "" {
			base = filepath.Join(dir, serviceName)
		}
	}
	if base == "" {
		if home, err := os.UserHomeDir(); err == nil && strings.TrimSpace(home) != "" {
			base = filepath.Join(home, ".config", serviceName)
		}
	}
	if base == "" {
		base = filepath.Join(os.TempDir(), serviceName)
	}
	return filepath.Join(base, "keyring")
}

func keyringFilePassword(prompt string) (string, error) {
	if password, ok := os.LookupEnv(envKeyringPassword); ok && strings.TrimSpace(password) != "" {
		return password, nil
	}
	if !stdinHasTTY() {
		return "", fmt.Errorf("set %s when using file keyring in non-interactive environments", envKeyringPassword)
	}
	return keyring.TerminalPrompt(prompt)
}

func firstNonBlankEnv(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func profileKey(name string) string {
	if name == "" || name == defaultProfile {
		return sessionKey
	}
	return profilePrefix + name
}

func loadProfileIndex(ring keyring.Keyring) ([]string, error) {
	item, err := ring.Get(profileIndexKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to get profile index: %w", err)
	}
	var profiles []string
	if err := json.Unmarshal(item.Data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile index: %w", err)
	}
	return profiles, nil
}

func saveProfileIndex(ring keyring.Keyring, profiles []string) error {
	data, err := json.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("failed to marshal profile index: %w", err)
	}
	return ring.Set(keyring.Item{
		Key:  profileIndexKey,
		Data: data,
	})
}

func normalizeProfiles(profiles []string) []string {
	seen := make(map[string]struct{}, len(profiles))
	var out []string
	for _, p := range profiles {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// SaveSession stores a session under a named profile and makes it current.
func SaveSession(profile string, session Session) error {
	if profile == "" {
		profile = defaultProfile
	}

	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return fmt.Errorf("failed to open keyring: %w", err)
	}

	if session.SavedAt.IsZero() {
		session.SavedAt = time.Now().UTC()
	}
	if session.User == nil || session.Token == "" {
		session.LastRoute = ""
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := ring.Set(keyring.Item{
		Key:   profileKey(profile),
		Label: serviceName + " " + profile,
		Data:  data,
	}); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	profiles, err := loadProfileIndex(ring)
	if err != nil {
		return err
	}
	if err := saveProfileIndex(ring, normalizeProfiles(append(profiles, profile))); err != nil {
		return err
	}

	return SetCurrentProfile(profile)
}

// LoadSession retrieves the session for a named profile.
func LoadSession(profile string) (Session, error) {
	if profile == "" {
		profile = defaultProfile
	}

	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return Session{}, fmt.Errorf("failed to open keyring: %w", err)
	}

	item, err := ring.Get(profileKey(profile))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return Session{}, ErrNotConfigured
		}
		return Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(item.Data, &session); err != nil {
		return Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if session.Token == "" {
		return Session{}, ErrNotConfigured
	}
	return session, nil
}

// LoadCurrentSession resolves the active profile and loads its session.
// MANGIEE_PROFILE overrides the stored current profile.
func LoadCurrentSession() (Session, error) {
	if profile := strings.TrimSpace(os.Getenv("MANGIEE_PROFILE")); profile != "" {
		return LoadSession(profile)
	}
	current, err := CurrentProfile()
	if err != nil {
		return Session{}, err
	}
	return LoadSession(current)
}

// DeleteSession removes a stored profile.
func DeleteSession(profile string) error {
	if profile == "" {
		profile = defaultProfile
	}

	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return fmt.Errorf("failed to open keyring: %w", err)
	}

	if err := ring.Remove(profileKey(profile)); err != nil {
		if !errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("failed to remove session: %w", err)
		}
	}

	profiles, err := loadProfileIndex(ring)
	if err != nil {
		return err
	}
	var remaining []string
	for _, p := range profiles {
		if p != profile {
			remaining = append(remaining, p)
		}
	}
	if err := saveProfileIndex(ring, remaining); err != nil {
		return err
	}

	current, err := CurrentProfile()
	if err == nil && current == profile {
		next := defaultProfile
		if len(remaining) > 0 {
			next = remaining[0]
		}
		_ = SetCurrentProfile(next)
	}

	return nil
}

// HasSession reports whether the active profile is signed in.
func HasSession() bool {
	_, err := LoadCurrentSession()
	return err == nil
}

// ListProfiles returns the known profile names
func ListProfiles() ([]string, error) {
	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}

	profiles, err := loadProfileIndex(ring)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		if _, err := ring.Get(sessionKey); err == nil {
			return []string{defaultProfile}, nil
		}
	}
	return profiles, nil
}

// CurrentProfile returns the active profile name
func CurrentProfile() (string, error) {
	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return "", fmt.Errorf("failed to open keyring: %w", err)
	}

	item, err := ring.Get(currentProfileKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return defaultProfile, nil
		}
		return "", fmt.Errorf("failed to get current profile: %w", err)
	}
	return string(item.Data), nil
}

// SetCurrentProfile sets the active profile name
func SetCurrentProfile(profile string) error {
	if profile == "" {
		profile = defaultProfile
	}

	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return fmt.Errorf("failed to open keyring: %w", err)
	}

	return ring.Set(keyring.Item{
		Key:  currentProfileKey,
		Data: []byte(profile),
	})
}

// KeyringBackend persists one profile's session in the keyring. It is the
// storage behind the auth store.
type KeyringBackend struct {
	Profile string
}

// Load returns the stored session, or nil when the profile is signed out.
func (b KeyringBackend) Load() (*Session, error) {
	session, err := LoadSession(b.Profile)
	if errors.Is(err, ErrNotConfigured) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Save writes the session.
func (b KeyringBackend) Save(session Session) error {
	return SaveSession(b.Profile, session)
}

// Clear removes the session.
func (b KeyringBackend) Clear() error {
	return DeleteSession(b.Profile)
}
