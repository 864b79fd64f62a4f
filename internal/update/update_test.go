package update

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mangiee/restaurant-cli/internal/cache"
)

const releaseURL = "https://github.com/mangiee/restaurant-cli/releases/tag/"

func serveRelease(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	original := GitHubReleasesURL
	GitHubReleasesURL = server.URL
	t.Cleanup(func() {
		server.Close()
		GitHubReleasesURL = original
	})
}

func releaseHandler(t *testing.T, release Release) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.Header.Get("Accept") != "application/vnd.github.v3+json" {
			t.Error("expected GitHub API accept header")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(release)
	}
}

func TestNormalizeVersion(t *testing.T) {
	tests := map[string]string{
		"1.0.0":     "v1.0.0",
		"v1.0.0":    "v1.0.0",
		" 0.4.2 ":   "v0.4.2",
		"v10.20.30": "v10.20.30",
		"":          "v",
	}
	for in, want := range tests {
		if got := normalizeVersion(in); got != want {
			t.Errorf("normalizeVersion(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCheckForUpdate_SkipsDevBuilds(t *testing.T) {
	for _, v := range []string{"dev", ""} {
		if CheckForUpdate(context.Background(), cache.Nop{}, v) != nil {
			t.Errorf("expected nil for version %q", v)
		}
	}
}

func TestCheckForUpdate(t *testing.T) {
	tests := []struct {
		name      string
		current   string
		tag       string
		available bool
	}{
		{"newer release", "1.0.0", "v1.1.0", true},
		{"same release", "1.1.0", "v1.1.0", false},
		{"local is ahead", "2.0.0", "v1.1.0", false},
		{"prefixed current", "v1.0.0", "v1.0.1", true},
		{"unparseable tag", "1.0.0", "nightly", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serveRelease(t, releaseHandler(t, Release{TagName: tt.tag, HTMLURL: releaseURL + tt.tag}))

			result := CheckForUpdate(context.Background(), cache.Nop{}, tt.current)
			if result == nil {
				t.Fatal("expected a result")
			}
			if result.UpdateAvailable != tt.available {
				t.Errorf("UpdateAvailable = %v, want %v", result.UpdateAvailable, tt.available)
			}
			if result.CurrentVersion != tt.current {
				t.Errorf("CurrentVersion = %q", result.CurrentVersion)
			}
			if result.UpdateURL != releaseURL+tt.tag {
				t.Errorf("UpdateURL = %q", result.UpdateURL)
			}
		})
	}
}

func TestCheckForUpdate_IgnoresPrerelease(t *testing.T) {
	serveRelease(t, releaseHandler(t, Release{TagName: "v9.0.0-rc.1", Prerelease: true}))
	if CheckForUpdate(context.Background(), cache.Nop{}, "1.0.0") != nil {
		t.Error("prereleases should not be offered")
	}
}

func TestCheckForUpdate_Failures(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"not found": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		},
		"invalid json": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("invalid json"))
		},
	}
	for name, handler := range tests {
		t.Run(name, func(t *testing.T) {
			serveRelease(t, handler)
			if CheckForUpdate(context.Background(), cache.Nop{}, "1.0.0") != nil {
				t.Error("expected nil")
			}
		})
	}
}

func TestCheckForUpdate_ContextCanceled(t *testing.T) {
	serveRelease(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if CheckForUpdate(ctx, cache.Nop{}, "1.0.0") != nil {
		t.Error("expected nil for canceled context")
	}
}

func TestCheckForUpdate_CachesLatestRelease(t *testing.T) {
	t.Setenv("MANGIEE_NO_CACHE", "")
	var hits int32
	published := time.Date(2026, 9, 30, 10, 0, 0, 0, time.UTC)
	serveRelease(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		releaseHandler(t, Release{TagName: "v1.3.0", HTMLURL: releaseURL + "v1.3.0", PublishedAt: published})(w, r)
	})
	store := cache.NewFileStore(t.TempDir(), cache.Scope{BaseURL: GitHubReleasesURL, Identity: "releases"}, ReleaseCacheTTL)

	for range 3 {
		result := CheckForUpdate(context.Background(), store, "1.2.0")
		if result == nil || !result.UpdateAvailable {
			t.Fatalf("expected an update, got %+v", result)
		}
		if !result.PublishedAt.Equal(published) {
			t.Errorf("PublishedAt = %v, want %v", result.PublishedAt, published)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected one GitHub request, got %d", got)
	}
}

func TestCheckForUpdate_FailureIsNotCached(t *testing.T) {
	t.Setenv("MANGIEE_NO_CACHE", "")
	var hits int32
	serveRelease(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	})
	store := cache.NewFileStore(t.TempDir(), cache.Scope{BaseURL: GitHubReleasesURL}, ReleaseCacheTTL)

	for range 2 {
		if CheckForUpdate(context.Background(), store, "1.2.0") != nil {
			t.Fatal("expected nil")
		}
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("a failed lookup must be retried, got %d requests", got)
	}
}

func TestCheckForUpdate_EmptyTagIgnored(t *testing.T) {
	serveRelease(t, releaseHandler(t, Release{HTMLURL: releaseURL}))
	if CheckForUpdate(context.Background(), cache.Nop{}, "1.0.0") != nil {
		t.Error("a release without a tag should be ignored")
	}
}
