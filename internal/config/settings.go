package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/mangiee/restaurant-cli/internal/api"
)

// Settings are the runtime knobs read from the environment.
type Settings struct {
	APIURL     string `env:"MANGIEE_API_URL"`
	ExpoAPIURL string `env:"EXPO_PUBLIC_API_URL"`
	Token      string `env:"MANGIEE_TOKEN"`
	Profile    string `env:"MANGIEE_PROFILE"`
	Output     string `env:"MANGIEE_OUTPUT"`

	Timeout       time.Duration `env:"MANGIEE_TIMEOUT,        default=10s"`
	UploadTimeout time.Duration `env:"MANGIEE_UPLOAD_TIMEOUT, default=60s"`
	PollInterval  time.Duration `env:"MANGIEE_POLL_INTERVAL,  default=30s"`

	Cache CacheSettings
}

// CacheSettings select and tune the catalog cache. An empty RedisAddr keeps
// the cache on disk.
type CacheSettings struct {
	TTL           time.Duration `env:"MANGIEE_CACHE_TTL,      default=5m"`
	Disabled      bool          `env:"MANGIEE_NO_CACHE,       default=false"`
	RedisAddr     string        `env:"MANGIEE_REDIS_ADDR"`
	RedisPassword string        `env:"MANGIEE_REDIS_PASSWORD"`
	RedisDB       int           `env:"MANGIEE_REDIS_DB,       default=0"`
}

// BaseURL is the API origin: MANGIEE_API_URL, then EXPO_PUBLIC_API_URL,
// then the production host.
func (s Settings) BaseURL() string {
	for _, candidate := range []string{s.APIURL, s.ExpoAPIURL} {
		if v := strings.TrimSpace(candidate); v != "" {
			return strings.TrimRight(v, "/")
		}
	}
	return api.DefaultBaseURL
}

// LoadSettings reads settings from the process environment.
func LoadSettings(ctx context.Context) (*Settings, error) {
	return LoadSettingsWith(ctx, envconfig.OsLookuper())
}

// LoadSettingsWith reads settings through an explicit lookuper.
func LoadSettingsWith(ctx context.Context, lookuper envconfig.Lookuper) (*Settings, error) {
	var s Settings
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &s,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	if s.Timeout <= 0 {
		return nil, fmt.Errorf("MANGIEE_TIMEOUT must be positive, got %s", s.Timeout)
	}
	if s.UploadTimeout <= 0 {
		return nil, fmt.Errorf("MANGIEE_UPLOAD_TIMEOUT must be positive, got %s", s.UploadTimeout)
	}
	return &s, nil
}

// LoadDotEnv loads .env files without overriding variables that are already
// exported. The working directory is tried first, then the config dir.
func LoadDotEnv() {
	candidates := []string{".env"}
	if dir, err := userConfigDir(); err == nil && strings.TrimSpace(dir) != "" {
		candidates = append(candidates, filepath.Join(dir, serviceName, ".env"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}

// ReadEnvFile parses a .env file without touching the process environment.
func ReadEnvFile(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("--env-file requires a file path")
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read --env-file %q: %w", path, err)
	}
	return vars, nil
}
