package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedReviews serves three pages of one review each.
func pagedReviews(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("page")
	next := page != "3"
	jsonResponse(200, envelope(fmt.Sprintf(`{
		"reviews": [{"_id": "r%s", "rating": 4, "comment": "Review %s", "customer": {"firstName": "Asha", "lastName": "K"}, "createdAt": "2026-10-0%sT10:00:00Z"}],
		"pagination": {"currentPage": %s, "totalPages": 3, "hasNextPage": %t}
	}`, page, page, page, page, next)))(w, r)
}

func TestReviewsListSinglePage(t *testing.T) {
	handler := newRouteHandler().On("GET", "/api/restaurant/reviews", pagedReviews)
	setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"reviews", "list"}))
	})
	assert.Contains(t, output, "★★★★☆ 4.0")
	assert.Contains(t, output, "Asha K")
	assert.Contains(t, output, "Review 1")
	assert.Contains(t, output, "More reviews: --page 2")
	assert.Equal(t, 1, handler.count("GET", "/api/restaurant/reviews"))

	q, err := url.ParseQuery(handler.last(t, "GET", "/api/restaurant/reviews").Query)
	require.NoError(t, err)
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "10", q.Get("limit"))
}

func TestReviewsListAllPages(t *testing.T) {
	handler := newRouteHandler().On("GET", "/api/restaurant/reviews", pagedReviews)
	setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"reviews", "list", "--all", "--limit", "1", "-o", "json"}))
	})
	reviews := decodeJSONArray(t, output)
	require.Len(t, reviews, 3)
	assert.Equal(t, "Review 3", reviews[2]["comment"])
	assert.Equal(t, 3, handler.count("GET", "/api/restaurant/reviews"))
}

func TestReviewsListPageJSONKeepsPagination(t *testing.T) {
	handler := newRouteHandler().On("GET", "/api/restaurant/reviews", pagedReviews)
	setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"reviews", "list", "--page", "3", "--json"}))
	})
	got := decodeJSONObject(t, output)
	pagination, ok := got["pagination"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, pagination["hasNextPage"])
}

func TestReviewsListFlagValidation(t *testing.T) {
	for _, args := range [][]string{{"--page", "0"}, {"--limit", "101"}} {
		t.Run(args[0], func(t *testing.T) {
			handler := newRouteHandler()
			setupTestEnvWithHandler(t, handler)

			var err error
			captureStderr(t, func() {
				err = Execute(context.Background(), append([]string{"reviews", "list"}, args...))
			})
			require.Error(t, err)
			assert.Equal(t, exitUsage, ExitCode(err))
			assert.Empty(t, handler.requests)
		})
	}
}

func TestReviewsStats(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/restaurant/reviews/stats", jsonResponse(200, envelope(`{"averageRating": 4.3, "totalReviews": 57}`)))
	setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"ratings", "stats"}))
	})
	assert.Contains(t, output, "averageRating:")
	assert.Contains(t, output, "4.3")
	assert.Contains(t, output, "57")
}

func TestCustomerName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: ``, want: "-"},
		{raw: `null`, want: "-"},
		{raw: `"65f1c0a2b3d4e5f6a7b8c9e1"`, want: "65f1c0a2b3d4e5f6a7b8c9e1"},
		{raw: `{"name": "Ravi"}`, want: "Ravi"},
		{raw: `{"firstName": "Asha", "lastName": "K"}`, want: "Asha K"},
		{raw: `{"phoneNumber": "9876543210"}`, want: "9876543210"},
		{raw: `[1, 2]`, want: "-"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, customerName([]byte(tt.raw)), "raw %s", tt.raw)
	}
}
