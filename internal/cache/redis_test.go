package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newRedisStore(t *testing.T, scope Scope, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, scope, ttl), mr
}

func TestRedisStore_PutGetExpire(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, Scope{BaseURL: "https://api.mangiee.com", Identity: "r1"}, time.Minute)

	s.Put(ctx, "categories", []string{"Thali", "Snacks"})

	var got []string
	if !s.Get(ctx, "categories", &got) || len(got) != 2 || got[0] != "Thali" {
		t.Fatalf("expected hit, got %v", got)
	}

	key := s.key("categories")
	if !strings.HasPrefix(key, keyPrefix+"categories:") {
		t.Errorf("unexpected key %q", key)
	}
	if ttl := mr.TTL(key); ttl != time.Minute {
		t.Errorf("TTL = %s, want 1m", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if s.Get(ctx, "categories", &got) {
		t.Error("expected miss after expiry")
	}
}

func TestRedisStore_ClearAndClearAll(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, Scope{BaseURL: "x", Identity: "r1"}, 0)
	if err := mr.Set("unrelated", "keep"); err != nil {
		t.Fatal(err)
	}

	s.Put(ctx, "items", []int{1})
	s.Put(ctx, "offers", []int{2})

	s.Clear(ctx, "items")
	var got []int
	if s.Get(ctx, "items", &got) {
		t.Error("items should be cleared")
	}
	if !s.Get(ctx, "offers", &got) {
		t.Error("offers should remain")
	}

	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if s.Get(ctx, "offers", &got) {
		t.Error("offers should be cleared by ClearAll")
	}
	if !mr.Exists("unrelated") {
		t.Error("ClearAll must only touch cache keys")
	}
}

func TestConnectFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := Connect(context.Background(), RedisConfig{Addr: addr, Timeout: 200 * time.Millisecond}); err == nil {
		t.Fatal("expected ping failure")
	}
}

func TestIsCacheFilename(t *testing.T) {
	valid := "categories_" + shortHash("a") + "_" + shortHash("b") + ".json"
	if !isCacheFilename(valid) {
		t.Errorf("%q should match", valid)
	}
	for _, name := range []string{"notes.json", "a_b_c.json", valid + ".tmp", "x_" + shortHash("a") + ".json"} {
		if isCacheFilename(name) {
			t.Errorf("%q should not match", name)
		}
	}
}
