package api

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
)

const (
	// DefaultBaseURL is used when no API origin is configured.
	DefaultBaseURL = "https://api.mangiee.com"
	// APIPrefix is the versioned path segment shared by every endpoint.
	APIPrefix = "/api"
)

// BaseURLFromEnv resolves the API origin from MANGIEE_API_URL, then
// EXPO_PUBLIC_API_URL, falling back to DefaultBaseURL.
func BaseURLFromEnv() string {
	for _, key := range []string{"MANGIEE_API_URL", "EXPO_PUBLIC_API_URL"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return DefaultBaseURL
}

// Paths is the static resource-path table, relative to APIPrefix.
var Paths = map[string]string{
	"sendOTP":           "/restaurant/send-otp",
	"verifyOTP":         "/restaurant/verify-otp",
	"register":          "/restaurant/register",
	"profile":           "/restaurant/profile",
	"dashboard":         "/restaurant/dashboard",
	"logout":            "/restaurant/logout",
	"messImage":         "/restaurant/mess-image",
	"messImages":        "/restaurant/mess-images",
	"categories":        "/restaurant/categories",
	"items":             "/restaurant/items",
	"offers":            "/restaurant/offers",
	"plans":             "/restaurant/plans",
	"reviews":           "/restaurant/reviews",
	"reviewStats":       "/restaurant/reviews/stats",
	"completedOrders":   "/restaurant/orders/completed",
	"refreshToken":      "/auth/refresh",
	"uploadDocuments":   "/restaurant/upload-documents",
	"itemBestSellers":   "/restaurant/items/best-sellers",
	"itemStats":         "/restaurant/items/stats",
	"offersAll":         "/restaurant/offers/all",
	"offersActive":      "/restaurant/offers/active",
	"offerCreate":       "/restaurant/offers/create",
	"planStatsOverview": "/restaurant/plans/stats",
}

// Endpoints resolves absolute URLs for every backend operation. The value is
// immutable once built; only the origin varies with configuration.
type Endpoints struct {
	base string
}

// NewEndpoints builds the registry for the given origin. An empty origin
// selects DefaultBaseURL. No validation happens here: a malformed origin
// surfaces as a transport error on first use.
func NewEndpoints(baseURL string) Endpoints {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Endpoints{base: baseURL}
}

// Origin returns the configured origin without the API prefix.
func (e Endpoints) Origin() string {
	if e.base == "" {
		return DefaultBaseURL
	}
	return e.base
}

// URL joins the origin, API prefix and a resource path.
func (e Endpoints) URL(path string) string {
	if path != "" && path[0] != '/' {
		path = "/" + path
	}
	return e.Origin() + APIPrefix + path
}

// Lookup returns the absolute URL for a named static path.
func (e Endpoints) Lookup(name string) (string, bool) {
	p, ok := Paths[name]
	if !ok {
		return "", false
	}
	return e.URL(p), true
}

// Names returns the static operation names in sorted order.
func (e Endpoints) Names() []string {
	names := make([]string, 0, len(Paths))
	for name := range Paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the flat name to absolute URL mapping.
func (e Endpoints) All() map[string]string {
	out := make(map[string]string, len(Paths))
	for name, p := range Paths {
		out[name] = e.URL(p)
	}
	return out
}

func (e Endpoints) static(name string) string {
	return e.URL(Paths[name])
}

func (e Endpoints) SendOTP() string         { return e.static("sendOTP") }
func (e Endpoints) VerifyOTP() string       { return e.static("verifyOTP") }
func (e Endpoints) Register() string        { return e.static("register") }
func (e Endpoints) Profile() string         { return e.static("profile") }
func (e Endpoints) Dashboard() string       { return e.static("dashboard") }
func (e Endpoints) Logout() string          { return e.static("logout") }
func (e Endpoints) MessImages() string      { return e.static("messImages") }
func (e Endpoints) Categories() string      { return e.static("categories") }
func (e Endpoints) Items() string           { return e.static("items") }
func (e Endpoints) Offers() string          { return e.static("offers") }
func (e Endpoints) Plans() string           { return e.static("plans") }
func (e Endpoints) ReviewStats() string     { return e.static("reviewStats") }
func (e Endpoints) CompletedOrders() string { return e.static("completedOrders") }
func (e Endpoints) RefreshToken() string    { return e.static("refreshToken") }
func (e Endpoints) UploadDocuments() string { return e.static("uploadDocuments") }
func (e Endpoints) ItemStats() string       { return e.static("itemStats") }
func (e Endpoints) OffersAll() string       { return e.static("offersAll") }
func (e Endpoints) OffersActive() string    { return e.static("offersActive") }
func (e Endpoints) OfferCreate() string     { return e.static("offerCreate") }
func (e Endpoints) PlansStats() string      { return e.static("planStatsOverview") }

// MessImage addresses a single gallery image by its remote URL.
func (e Endpoints) MessImage(imageURL string) string {
	return e.static("messImage") + "/" + url.PathEscape(imageURL)
}

func (e Endpoints) Category(id string) string {
	return e.Categories() + "/" + url.PathEscape(id)
}

func (e Endpoints) Item(id string) string {
	return e.Items() + "/" + url.PathEscape(id)
}

func (e Endpoints) ItemToggle(id string) string {
	return e.Item(id) + "/toggle-availability"
}

func (e Endpoints) ItemOrderCount(id string) string {
	return e.Item(id) + "/update-order-count"
}

// ItemBestSellers returns the best-sellers URL; limit <= 0 omits the query.
func (e Endpoints) ItemBestSellers(limit int) string {
	u := e.static("itemBestSellers")
	if limit > 0 {
		u += fmt.Sprintf("?limit=%d", limit)
	}
	return u
}

func (e Endpoints) Offer(id string) string {
	return e.Offers() + "/" + url.PathEscape(id)
}

func (e Endpoints) Plan(id string) string {
	return e.Plans() + "/" + url.PathEscape(id)
}

func (e Endpoints) PlanToggle(id string) string {
	return e.Plan(id) + "/toggle-availability"
}

func (e Endpoints) PlanStats(id string) string {
	return e.Plan(id) + "/stats"
}

func (e Endpoints) PlanMeals(id string) string {
	return e.Plan(id) + "/meals"
}

func (e Endpoints) PlanFeatures(id string) string {
	return e.Plan(id) + "/features"
}

// Reviews returns the paged reviews URL. Zero values omit the parameter.
func (e Endpoints) Reviews(page, limit int) string {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprintf("%d", page))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	u := e.static("reviews")
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}
