// Package update tells restaurant staff when a newer mangiee CLI release is
// published. The answer is cached so `version --check` in scripts does not
// hit GitHub on every run, and any failure simply means "no news".
package update

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/mangiee/restaurant-cli/internal/cache"
)

const (
	DefaultGitHubReleasesURL = "https://api.github.com/repos/mangiee/restaurant-cli/releases/latest"
	CheckTimeout             = 5 * time.Second
	// ReleaseCacheTTL bounds how stale a cached "latest release" may be.
	ReleaseCacheTTL = 6 * time.Hour

	releaseCacheKey = "latest-release"
)

// GitHubReleasesURL is overridden in tests.
var GitHubReleasesURL = DefaultGitHubReleasesURL

type Release struct {
	TagName     string    `json:"tag_name"`
	HTMLURL     string    `json:"html_url"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
}

type CheckResult struct {
	CurrentVersion  string
	LatestVersion   string
	UpdateURL       string
	PublishedAt     time.Time
	UpdateAvailable bool
}

// ReleaseStore is the file cache the version command keeps release answers
// in, shared with `mangiee cache clear`. It falls back to no caching when
// the cache directory is unavailable.
func ReleaseStore() cache.Store {
	dir, err := cache.DefaultDir()
	if err != nil {
		return cache.Nop{}
	}
	return cache.NewFileStore(dir, cache.Scope{BaseURL: GitHubReleasesURL, Identity: "releases"}, ReleaseCacheTTL)
}

// CheckForUpdate compares currentVersion against the latest stable release.
// It returns nil for dev builds, prereleases and any lookup failure.
func CheckForUpdate(ctx context.Context, store cache.Store, currentVersion string) *CheckResult {
	if currentVersion == "dev" || currentVersion == "" {
		return nil
	}

	var release Release
	if !store.Get(ctx, releaseCacheKey, &release) {
		var ok bool
		if release, ok = fetchLatest(ctx); !ok {
			return nil
		}
		store.Put(ctx, releaseCacheKey, release)
	}
	if release.Prerelease {
		return nil
	}
	return compare(currentVersion, release)
}

func fetchLatest(ctx context.Context) (Release, bool) {
	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, GitHubReleasesURL, nil)
	if err != nil {
		return Release{}, false
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Release{}, false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Release{}, false
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return Release{}, false
	}
	if release.TagName == "" {
		return Release{}, false
	}
	return release, true
}

func compare(currentVersion string, release Release) *CheckResult {
	current := normalizeVersion(currentVersion)
	latest := normalizeVersion(release.TagName)

	result := &CheckResult{
		CurrentVersion: currentVersion,
		LatestVersion:  strings.TrimPrefix(release.TagName, "v"),
		UpdateURL:      release.HTMLURL,
		PublishedAt:    release.PublishedAt,
	}
	if semver.IsValid(current) && semver.IsValid(latest) {
		result.UpdateAvailable = semver.Compare(latest, current) > 0
	}
	return result
}

func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}
