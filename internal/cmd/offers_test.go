package cmd

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const offersData = `[
	{"_id": "65f1c0a2b3d4e5f6a7b8c9c1", "offerTitle": "Weekend 20", "discountType": "percentage", "discountValue": 20,
	 "maxDiscountAmount": 100, "minOrderValue": 199, "validFrom": "2026-11-01T00:00:00Z", "validTo": "2026-11-30T23:59:59Z", "isActive": true},
	{"_id": "65f1c0a2b3d4e5f6a7b8c9c2", "offerTitle": "Flat 50", "discountType": "flat", "discountValue": 50, "isActive": false}
]`

const offerID = "65f1c0a2b3d4e5f6a7b8c9c1"

func TestOffersList(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/restaurant/offers/all", jsonResponse(200, envelope(offersData)))
	setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"offers", "list"}))
	})
	assert.Contains(t, output, "Weekend 20")
	assert.Contains(t, output, "20% up to ₹100.00")
	assert.Contains(t, output, "₹50.00 off")
	assert.Contains(t, output, "2026-11-01 → 2026-11-30")
	assert.Zero(t, handler.count("GET", "/api/restaurant/offers/active"))
}

func TestOffersListActive(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/restaurant/offers/active", jsonResponse(200, envelope(`[
			{"_id": "65f1c0a2b3d4e5f6a7b8c9c1", "offerTitle": "Weekend 20", "discountType": "percentage", "discountValue": 20, "isActive": true}
		]`)))
	setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"offers", "list", "--active", "-o", "json"}))
	})
	offers := decodeJSONArray(t, output)
	require.Len(t, offers, 1)
	assert.Equal(t, "Weekend 20", offers[0]["offerTitle"])
	assert.Zero(t, handler.count("GET", "/api/restaurant/offers/all"))
}

func TestOffersGetByTitle(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/restaurant/offers/all", jsonResponse(200, envelope(offersData))).
		On("GET", "/api/restaurant/offers/65f1c0a2b3d4e5f6a7b8c9c2", jsonResponse(200, envelope(`{
			"_id": "65f1c0a2b3d4e5f6a7b8c9c2", "offerTitle": "Flat 50", "discountType": "flat", "discountValue": 50,
			"minOrderValue": 299, "usageLimit": 100, "usagePerUser": 2, "termsAndConditions": "Dine-in only"
		}`)))
	setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"offers", "get", "flat 50"}))
	})
	assert.Contains(t, output, "₹50.00 off")
	assert.Contains(t, output, "₹299.00")
	assert.Contains(t, output, "100 (2 per customer)")
	assert.Contains(t, output, "Dine-in only")
}

func TestOffersCreatePercentage(t *testing.T) {
	handler := newRouteHandler().
		On("POST", "/api/restaurant/offers/create", jsonResponse(201, envelope(
			`{"_id": "65f1c0a2b3d4e5f6a7b8c9c3", "offerTitle": "Diwali 25"}`)))
	setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{
			"offers", "create", "--title", "Diwali 25", "--type", "percentage", "--value", "25",
			"--max-discount", "₹150", "--from", "2026-11-01T00:00:00+05:30", "--to", "2026-11-05T23:59:59+05:30",
		}))
	})
	assert.Contains(t, output, "Created offer 65f1c0a2b3d4e5f6a7b8c9c3: Diwali 25")

	body := handler.last(t, "POST", "/api/restaurant/offers/create").JSON(t)
	assert.Equal(t, "Diwali 25", body["offerTitle"])
	assert.Equal(t, "percentage", body["discountType"])
	assert.Equal(t, float64(25), body["discountValue"])
	assert.Equal(t, float64(150), body["maxDiscountAmount"])
	assert.Equal(t, "2026-10-31T18:30:00Z", body["validFrom"])
	assert.Equal(t, "2026-11-05T18:29:59Z", body["validTo"])
	assert.Equal(t, true, body["isActive"])
	assert.NotContains(t, body, "minOrderValue")
}

func TestOffersCreateFlatWithCategories(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/restaurant/categories", jsonResponse(200, envelope(categoriesData))).
		On("POST", "/api/restaurant/offers/create", jsonResponse(201, envelope(
			`{"_id": "65f1c0a2b3d4e5f6a7b8c9c4", "offerTitle": "Flat 40"}`)))
	setupTestEnvWithHandler(t, handler)

	captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{
			"offers", "create", "--title", "Flat 40", "--discount-type", "FLAT", "--value", "40",
			"--min-order", "299", "--categories", "starters,Main Course", "--active=false",
		}))
	})
	body := handler.last(t, "POST", "/api/restaurant/offers/create").JSON(t)
	assert.Equal(t, "flat", body["discountType"])
	assert.Equal(t, float64(299), body["minOrderValue"])
	assert.Equal(t, false, body["isActive"])
	assert.Equal(t, []any{"65f1c0a2b3d4e5f6a7b8c9a1", "65f1c0a2b3d4e5f6a7b8c9a2"}, body["applicableCategories"])
}

func TestOffersCreateValidation(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantErr  string
		wantCode int
	}{
		{
			name:     "missing value",
			args:     []string{"--title", "X", "--type", "flat"},
			wantErr:  "--value is required",
			wantCode: exitUsage,
		},
		{
			name:     "percentage over 100",
			args:     []string{"--title", "X", "--type", "percentage", "--value", "120"},
			wantErr:  "cannot exceed 100",
			wantCode: exitUsage,
		},
		{
			name:     "unknown discount type",
			args:     []string{"--title", "X", "--type", "bogo", "--value", "1"},
			wantErr:  `invalid discount-type "bogo"`,
			wantCode: exitUsage,
		},
		{
			name:     "bad date",
			args:     []string{"--title", "X", "--type", "flat", "--value", "10", "--from", "01/11/2026"},
			wantErr:  "invalid --from",
			wantCode: exitUsage,
		},
		{
			name:    "range reversed",
			args:    []string{"--title", "X", "--type", "flat", "--value", "10", "--from", "2026-11-05", "--to", "2026-11-01"},
			wantErr: "--to must not be before --from",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newRouteHandler()
			setupTestEnvWithHandler(t, handler)

			var err error
			captureStderr(t, func() {
				err = Execute(context.Background(), append([]string{"offers", "create"}, tt.args...))
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, ExitCode(err))
			}
			assert.Zero(t, handler.count("POST", "/api/restaurant/offers/create"))
		})
	}
}

func TestOffersCreateDryRunJSON(t *testing.T) {
	handler := newRouteHandler()
	setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{
			"offers", "create", "--title", "Flat 50", "--type", "flat", "--value", "50", "--dry-run", "--json",
		}))
	})
	got := decodeJSONObject(t, output)
	assert.Equal(t, true, got["dry_run"])
	assert.Equal(t, "POST", got["method"])
	assert.Equal(t, os.Getenv("MANGIEE_API_URL")+"/api/restaurant/offers/create", got["path"])
	assert.Equal(t, false, got["multipart"])
	details, ok := got["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Flat 50", details["title"])
	assert.Equal(t, "50", details["value"])
	assert.Empty(t, handler.requests)
}

func TestOffersUpdateValueUsesExistingType(t *testing.T) {
	tests := []struct {
		name         string
		existingType string
		value        string
		wantErr      string
	}{
		{name: "flat accepts rupees", existingType: "flat", value: "150"},
		{name: "percentage capped", existingType: "percentage", value: "150", wantErr: "cannot exceed 100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newRouteHandler().
				On("GET", "/api/restaurant/offers/"+offerID, jsonResponse(200, envelope(
					`{"_id": "`+offerID+`", "offerTitle": "Weekend", "discountType": "`+tt.existingType+`"}`))).
				On("PUT", "/api/restaurant/offers/"+offerID, jsonResponse(200, envelope(
					`{"_id": "`+offerID+`", "offerTitle": "Weekend"}`)))
			setupTestEnvWithHandler(t, handler)

			var err error
			captureStderr(t, func() {
				captureStdout(t, func() {
					err = Execute(context.Background(), []string{"offers", "update", offerID, "--value", tt.value})
				})
			})
			assert.Equal(t, 1, handler.count("GET", "/api/restaurant/offers/"+offerID))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Zero(t, handler.count("PUT", "/api/restaurant/offers/"+offerID))
				return
			}
			require.NoError(t, err)
			body := handler.last(t, "PUT", "/api/restaurant/offers/"+offerID).JSON(t)
			assert.Equal(t, map[string]any{"discountValue": float64(150)}, body)
		})
	}
}

func TestOffersUpdateTitleSkipsFetch(t *testing.T) {
	handler := newRouteHandler().
		On("PUT", "/api/restaurant/offers/"+offerID, jsonResponse(200, envelope(
			`{"_id": "`+offerID+`", "offerTitle": "Long Weekend"}`)))
	setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"offers", "update", offerID, "--title", "Long Weekend"}))
	})
	assert.Contains(t, output, "Updated offer "+offerID+": Long Weekend")
	assert.Zero(t, handler.count("GET", "/api/restaurant/offers/"+offerID))
	assert.Equal(t, map[string]any{"offerTitle": "Long Weekend"}, handler.last(t, "PUT", "/api/restaurant/offers/"+offerID).JSON(t))
}

func TestOffersDeleteJSON(t *testing.T) {
	handler := newRouteHandler().
		On("DELETE", "/api/restaurant/offers/"+offerID, jsonResponse(200, envelope(`{}`)))
	setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"offers", "rm", offerID, "--yes", "-o", "json"}))
	})
	got := decodeJSONObject(t, output)
	assert.Equal(t, true, got["deleted"])
	assert.Equal(t, offerID, got["id"])
}

func TestParseOfferDate(t *testing.T) {
	got, err := parseOfferDate("from", "2026-11-01T10:00:00+05:30", false)
	require.NoError(t, err)
	assert.Equal(t, "2026-11-01T04:30:00Z", got)

	start := time.Date(2026, 11, 1, 0, 0, 0, 0, time.Local)
	got, err = parseOfferDate("from", "2026-11-01", false)
	require.NoError(t, err)
	assert.Equal(t, start.UTC().Format(time.RFC3339), got)

	got, err = parseOfferDate("to", "2026-11-01", true)
	require.NoError(t, err)
	assert.Equal(t, start.Add(24*time.Hour-time.Second).UTC().Format(time.RFC3339), got)

	_, err = parseOfferDate("to", "tomorrow", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --to")
}

func TestValidityLabel(t *testing.T) {
	assert.Equal(t, "-", validityLabel("", ""))
	assert.Equal(t, "2026-11-01 → ?", validityLabel("2026-11-01T00:00:00Z", ""))
}
