package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dashboardData = `{
	"restaurantInfo": {"businessName": "Spice Hub", "status": "approved", "isActive": true, "isApproved": true},
	"stats": {"totalOrders": 3, "totalRevenue": 1000, "totalCustomers": 2, "averageRating": 4.26},
	"recentActivity": [{"message": "Order #1042 completed"}, {"type": "review"}, {"id": 7}]
}`

func TestDashboard(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/restaurant/dashboard", jsonResponse(200, envelope(dashboardData)))
	setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"dash"}))
	})
	assert.Contains(t, output, "Spice Hub (approved)")
	assert.Contains(t, output, "₹1000.00")
	assert.Contains(t, output, "₹333.33")
	assert.Contains(t, output, "4.3")
	assert.Contains(t, output, "  - Order #1042 completed")
	assert.Contains(t, output, "  - review")
}

func TestDashboardNoOrders(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/restaurant/dashboard", jsonResponse(200, envelope(`{"stats": {}}`)))
	setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"dashboard"}))
	})
	assert.Contains(t, output, "₹0.00")
	assert.NotContains(t, output, "Recent activity")
}

func TestDashboardJSON(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/restaurant/dashboard", jsonResponse(200, envelope(dashboardData)))
	setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"dashboard", "-o", "json"}))
	})
	got := decodeJSONObject(t, output)
	stats, ok := got["stats"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), stats["totalOrders"])
}

func TestDashboardSessionExpired(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/restaurant/dashboard", jsonResponse(401, `{"success": false, "message": "jwt expired"}`))
	setupTestEnvWithHandler(t, handler)

	var err error
	stderr := captureStderr(t, func() {
		err = Execute(context.Background(), []string{"dashboard"})
	})
	require.Error(t, err)
	assert.Equal(t, exitAuth, ExitCode(err))
	assert.Contains(t, stderr, "Session expired. Please login again.")
	assert.Contains(t, stderr, "mangiee auth login")
}

func TestActivityLine(t *testing.T) {
	assert.Equal(t, "Menu updated", activityLine(map[string]any{"title": "Menu updated", "type": "menu"}))
	assert.Equal(t, "map[id:7]", activityLine(map[string]any{"id": 7}))
}
