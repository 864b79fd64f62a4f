package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mangiee/restaurant-cli/internal/api"
	"github.com/mangiee/restaurant-cli/internal/authstore"
	"github.com/mangiee/restaurant-cli/internal/cache"
	"github.com/mangiee/restaurant-cli/internal/config"
	"github.com/mangiee/restaurant-cli/internal/validation"
)

// newSessionBackend is swapped in tests.
var newSessionBackend = func(profile string) authstore.Backend {
	return config.KeyringBackend{Profile: profile}
}

// session bundles what every authenticated command needs: the API client,
// the auth store for the active profile, and the profile name itself.
type session struct {
	profile string
	client  *api.Client
	store   *authstore.Store
}

func newClient(baseURL string) *api.Client {
	client := api.New(baseURL)
	client.Timeout = flags.Timeout
	client.UploadTimeout = flags.UploadTimeout
	client.UserAgent = fmt.Sprintf("mangiee-cli/%s", version)
	return client
}

// activeProfile resolves --profile, then MANGIEE_PROFILE, then the stored
// current profile.
func activeProfile() string {
	if p := strings.TrimSpace(flags.Profile); p != "" {
		return p
	}
	if p := strings.TrimSpace(env.Profile); p != "" {
		return p
	}
	if p, err := config.CurrentProfile(); err == nil && p != "" {
		return p
	}
	return "default"
}

// explicitBaseURL is the origin from --api-url or the environment, or "".
func explicitBaseURL() string {
	for _, candidate := range []string{flags.APIURL, env.APIURL, env.ExpoAPIURL} {
		if v := strings.TrimSpace(candidate); v != "" {
			return strings.TrimRight(v, "/")
		}
	}
	return ""
}

// openSession restores the active profile. It does not require a token;
// authed also requires one.
func openSession() (*session, error) {
	profile := activeProfile()
	store := authstore.New(newSessionBackend(profile), explicitBaseURL())
	if err := store.Restore(); err != nil {
		return nil, err
	}

	baseURL := store.BaseURL()
	if baseURL == "" {
		baseURL = api.DefaultBaseURL
	}
	if err := validation.ValidateAPIURL(baseURL); err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	slog.Debug("session opened", "profile", profile, "base_url", baseURL)

	return &session{
		profile: profile,
		client:  newClient(baseURL),
		store:   store,
	}, nil
}

// token returns MANGIEE_TOKEN when set, otherwise the stored token.
func (s *session) token() (string, error) {
	if t := strings.TrimSpace(env.Token); t != "" {
		return t, nil
	}
	if t := s.store.Token(); t != "" {
		return t, nil
	}
	return "", config.ErrNotConfigured
}

// restaurantID identifies the signed-in restaurant for cache scoping.
func (s *session) restaurantID() string {
	if user := s.store.Snapshot().User; user != nil && user.ID != "" {
		return user.ID
	}
	return s.profile
}

// authed opens the session and returns it with a usable token.
func authed() (*session, string, error) {
	s, err := openSession()
	if err != nil {
		return nil, "", err
	}
	token, err := s.token()
	if err != nil {
		return nil, "", err
	}
	return s, token, nil
}

// trackRoute records the command path as the last route for the signed-in
// restaurant. Failures are logged and ignored.
func (s *session) trackRoute(cmd *cobra.Command) {
	if err := s.store.SaveRoute(cmd.CommandPath()); err != nil {
		slog.Debug("save route failed", "error", err)
	}
}

// cacheStore picks the catalog cache: none with --no-cache, Redis when
// MANGIEE_REDIS_ADDR is set, otherwise files under the user cache dir.
func (s *session) cacheStore(ctx context.Context) cache.Store {
	if flags.NoCache {
		return cache.Nop{}
	}
	scope := cache.Scope{BaseURL: s.client.Endpoints.Origin(), Identity: s.restaurantID()}
	if addr := strings.TrimSpace(env.Cache.RedisAddr); addr != "" {
		client, err := cache.Connect(ctx, cache.RedisConfig{
			Addr:     addr,
			Password: env.Cache.RedisPassword,
			DB:       env.Cache.RedisDB,
		})
		if err == nil {
			return cache.NewRedisStore(client, scope, env.Cache.TTL)
		}
		slog.Warn("redis cache unavailable, using disk", "addr", addr, "error", err)
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return cache.Nop{}
	}
	return cache.NewFileStore(dir, scope, env.Cache.TTL)
}

// previewEndpoints resolves URLs for dry-run output without opening the
// keychain.
func previewEndpoints() api.Endpoints {
	return api.NewEndpoints(explicitBaseURL())
}
