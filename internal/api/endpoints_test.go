package api

import (
	"strings"
	"testing"
)

func TestNewEndpointsDefaults(t *testing.T) {
	e := NewEndpoints("")
	if got := e.SendOTP(); got != "https://api.mangiee.com/api/restaurant/send-otp" {
		t.Errorf("SendOTP() = %q", got)
	}
	if got := NewEndpoints("https://staging.example.com/").Profile(); got != "https://staging.example.com/api/restaurant/profile" {
		t.Errorf("Profile() with trailing slash = %q", got)
	}
}

func TestEndpointsDeterministic(t *testing.T) {
	a := NewEndpoints("https://api.example.com").All()
	b := NewEndpoints("https://api.example.com").All()
	if len(a) != len(Paths) {
		t.Fatalf("expected %d endpoints, got %d", len(Paths), len(a))
	}
	for name, u := range a {
		if b[name] != u {
			t.Errorf("%s: %q != %q", name, u, b[name])
		}
	}
}

func TestEndpointsOriginOnlyChangesPrefix(t *testing.T) {
	prod := NewEndpoints("https://api.mangiee.com").All()
	local := NewEndpoints("http://localhost:5000").All()
	for name, u := range prod {
		suffix := strings.TrimPrefix(u, "https://api.mangiee.com")
		if local[name] != "http://localhost:5000"+suffix {
			t.Errorf("%s: got %q, want suffix %q", name, local[name], suffix)
		}
	}
}

func TestBaseURLFromEnv(t *testing.T) {
	t.Setenv("MANGIEE_API_URL", "")
	t.Setenv("EXPO_PUBLIC_API_URL", "")
	if got := BaseURLFromEnv(); got != DefaultBaseURL {
		t.Errorf("default = %q", got)
	}

	t.Setenv("EXPO_PUBLIC_API_URL", "http://10.0.2.2:4000")
	if got := BaseURLFromEnv(); got != "http://10.0.2.2:4000" {
		t.Errorf("expo override = %q", got)
	}

	t.Setenv("MANGIEE_API_URL", "https://cli.example.com")
	if got := BaseURLFromEnv(); got != "https://cli.example.com" {
		t.Errorf("cli override = %q", got)
	}
}

func TestParameterizedEndpoints(t *testing.T) {
	e := NewEndpoints("https://x.test")
	tests := []struct {
		got  string
		want string
	}{
		{e.Item("abc"), "https://x.test/api/restaurant/items/abc"},
		{e.ItemToggle("abc"), "https://x.test/api/restaurant/items/abc/toggle-availability"},
		{e.ItemOrderCount("abc"), "https://x.test/api/restaurant/items/abc/update-order-count"},
		{e.ItemBestSellers(5), "https://x.test/api/restaurant/items/best-sellers?limit=5"},
		{e.ItemBestSellers(0), "https://x.test/api/restaurant/items/best-sellers"},
		{e.ItemStats(), "https://x.test/api/restaurant/items/stats"},
		{e.OffersAll(), "https://x.test/api/restaurant/offers/all"},
		{e.OffersActive(), "https://x.test/api/restaurant/offers/active"},
		{e.OfferCreate(), "https://x.test/api/restaurant/offers/create"},
		{e.Offer("o1"), "https://x.test/api/restaurant/offers/o1"},
		{e.PlanToggle("p1"), "https://x.test/api/restaurant/plans/p1/toggle-availability"},
		{e.PlanStats("p1"), "https://x.test/api/restaurant/plans/p1/stats"},
		{e.PlansStats(), "https://x.test/api/restaurant/plans/stats"},
		{e.PlanMeals("p1"), "https://x.test/api/restaurant/plans/p1/meals"},
		{e.PlanFeatures("p1"), "https://x.test/api/restaurant/plans/p1/features"},
		{e.Reviews(2, 10), "https://x.test/api/restaurant/reviews?limit=10&page=2"},
		{e.RefreshToken(), "https://x.test/api/auth/refresh"},
		{e.MessImage("https://cdn.test/a b.jpg"), "https://x.test/api/restaurant/mess-image/https:%2F%2Fcdn.test%2Fa%20b.jpg"},
		{e.Category("a/b"), "https://x.test/api/restaurant/categories/a%2Fb"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestLookup(t *testing.T) {
	e := NewEndpoints("https://x.test")
	u, ok := e.Lookup("logout")
	if !ok || u != "https://x.test/api/restaurant/logout" {
		t.Errorf("Lookup(logout) = %q, %v", u, ok)
	}
	if _, ok := e.Lookup("nope"); ok {
		t.Error("expected unknown name to miss")
	}
	names := e.Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}
