package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mangiee/restaurant-cli/internal/api"
	"github.com/mangiee/restaurant-cli/internal/config"
	"github.com/mangiee/restaurant-cli/internal/resolve"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "not configured",
			err:      config.ErrNotConfigured,
			contains: []string{"Not logged in.", "mangiee auth login --phone", "MANGIEE_TOKEN"},
		},
		{
			name:     "ambiguous",
			err:      &resolve.AmbiguousError{Query: "pan"},
			contains: []string{`ambiguous match for "pan"`, "Pass the id instead of the name"},
		},
		{
			name:     "session expired",
			err:      &api.Error{Kind: api.KindAuth, StatusCode: 401, Message: api.MsgSessionExpired},
			contains: []string{"Session expired. Please login again.", "mangiee auth login"},
		},
		{
			name:     "timeout",
			err:      &api.Error{Kind: api.KindTimeout, Message: api.MsgTimeout},
			contains: []string{api.MsgTimeout, "--upload-timeout"},
		},
		{
			name:     "transport",
			err:      &api.Error{Kind: api.KindTransport, Message: "connection refused"},
			contains: []string{"Network error: connection refused", "mangiee endpoints"},
		},
		{
			name:     "decode",
			err:      &api.Error{Kind: api.KindDecode, Message: api.MsgBadResponse},
			contains: []string{api.MsgBadResponse, "--debug", "--api-url"},
		},
		{
			name:     "bad request mentioning required",
			err:      &api.Error{Kind: api.KindHTTP, StatusCode: 400, Message: "Title is required", RequestID: "req-42"},
			contains: []string{"API error (HTTP 400): Title is required", "--dry-run", "A required field may be missing", "Request ID: req-42"},
		},
		{
			name:     "forbidden",
			err:      &api.Error{Kind: api.KindHTTP, StatusCode: 403, Message: "Forbidden"},
			contains: []string{"not be approved", "mangiee profile get"},
		},
		{
			name:     "server",
			err:      &api.Error{Kind: api.KindHTTP, StatusCode: 503, Message: "HTTP 503: Service Unavailable"},
			contains: []string{"Server error, wait and retry"},
		},
		{
			name:     "structured",
			err:      api.NewValidationError("type", "bogo", []string{"percentage", "flat"}),
			contains: []string{`Error: invalid type "bogo"`, "Suggestion: Use one of: percentage, flat"},
		},
		{
			name:     "plain",
			err:      errors.New("something odd"),
			contains: []string{"Error: something odd"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := HandleError(tt.err)
			for _, want := range tt.contains {
				assert.Contains(t, msg, want)
			}
		})
	}
}

func TestHandleErrorNil(t *testing.T) {
	assert.Empty(t, HandleError(nil))
}

func TestHandleErrorCanceledHasNoSuggestions(t *testing.T) {
	msg := HandleError(&api.Error{Kind: api.KindCanceled, Message: api.MsgCanceled})
	assert.Equal(t, api.MsgCanceled+"\n", msg)
}
