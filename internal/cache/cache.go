// Package cache keeps short-lived copies of catalog lists (categories,
// items, offers, plans) so name lookups do not refetch on every command.
//
// Entries are JSON, scoped per resource, API origin and signed-in
// restaurant. The default TTL is 5 minutes. Disable with MANGIEE_NO_CACHE=1.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultTTL = 5 * time.Minute

// Store is a keyed cache. Misses and write failures are silent: the cache
// only ever saves a round trip.
type Store interface {
	Get(ctx context.Context, key string, dst any) bool
	Put(ctx context.Context, key string, v any)
	Clear(ctx context.Context, key string)
	ClearAll(ctx context.Context) error
}

// Scope separates entries for different servers and restaurants.
type Scope struct {
	BaseURL  string
	Identity string
}

func (s Scope) suffix() string {
	return shortHash(s.BaseURL) + "_" + shortHash(s.Identity)
}

func shortHash(v string) string {
	sum := sha1.Sum([]byte(v))
	return hex.EncodeToString(sum[:6])
}

type entry struct {
	CachedAt time.Time       `json:"cached_at"`
	Items    json.RawMessage `json:"items"`
}

func encodeEntry(v any, now time.Time) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(entry{CachedAt: now, Items: raw})
}

func decodeEntry(data []byte, ttl time.Duration, dst any) bool {
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return false
	}
	if ttl > 0 && time.Since(e.CachedAt) > ttl {
		return false
	}
	return json.Unmarshal(e.Items, dst) == nil
}

// FileStore keeps one JSON file per key.
type FileStore struct {
	dir   string
	scope Scope
	ttl   time.Duration
}

// NewFileStore creates a file cache in dir. A non-positive ttl selects
// DefaultTTL.
func NewFileStore(dir string, scope Scope, ttl time.Duration) *FileStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FileStore{dir: dir, scope: scope, ttl: ttl}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+"_"+s.scope.suffix()+".json")
}

// Get loads cached items into dst. Returns false on miss (no file, expired, disabled).
func (s *FileStore) Get(_ context.Context, key string, dst any) bool {
	if disabled() {
		return false
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return false
	}
	return decodeEntry(data, s.ttl, dst)
}

// Put writes items to the cache. Silently no-ops on error or when disabled.
func (s *FileStore) Put(_ context.Context, key string, v any) {
	if disabled() {
		return
	}
	data, err := encodeEntry(v, time.Now())
	if err != nil {
		return
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return
	}

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		_ = os.Remove(tmp)
		return
	}
	_ = os.Rename(tmp, path)
}

// Clear removes one key.
func (s *FileStore) Clear(_ context.Context, key string) {
	_ = os.Remove(s.path(key))
}

// ClearAll removes every cache file in the directory, for any scope.
// Only files matching the cache filename scheme are touched.
func (s *FileStore) ClearAll(_ context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !isCacheFilename(e.Name()) {
			continue
		}
		_ = os.Remove(filepath.Join(s.dir, e.Name()))
	}
	return nil
}

// Nop is a Store that never hits.
type Nop struct{}

func (Nop) Get(context.Context, string, any) bool { return false }
func (Nop) Put(context.Context, string, any)      {}
func (Nop) Clear(context.Context, string)         {}
func (Nop) ClearAll(context.Context) error        { return nil }

// DefaultDir returns the platform-appropriate cache directory.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "mangiee-cli"), nil
}

func disabled() bool {
	return os.Getenv("MANGIEE_NO_CACHE") != ""
}

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "cache"
	}
	key = strings.ReplaceAll(key, "/", "-")
	key = strings.ReplaceAll(key, "\\", "-")
	key = strings.ReplaceAll(key, "_", "-")
	return key
}

func isCacheFilename(name string) bool {
	// Expected: "<key>_<12hex>_<12hex>.json"
	if filepath.Ext(name) != ".json" {
		return false
	}
	parts := strings.Split(strings.TrimSuffix(name, ".json"), "_")
	if len(parts) != 3 || parts[0] == "" {
		return false
	}
	return isShortHash(parts[1]) && isShortHash(parts[2])
}

func isShortHash(s string) bool {
	if len(s) != 12 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
