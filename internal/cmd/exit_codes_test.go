package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"

	"github.com/mangiee/restaurant-cli/internal/api"
	"github.com/mangiee/restaurant-cli/internal/config"
	"github.com/mangiee/restaurant-cli/internal/resolve"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"help", pflag.ErrHelp, exitOK},
		{"not configured", fmt.Errorf("load: %w", config.ErrNotConfigured), exitAuth},
		{"not found", &resolve.NotFoundError{Query: "paneer"}, exitNotFound},
		{"ambiguous", &resolve.AmbiguousError{Query: "pan"}, exitUsage},
		{"session expired", &api.Error{Kind: api.KindAuth, StatusCode: 401, Message: api.MsgSessionExpired}, exitAuth},
		{"forbidden", &api.Error{Kind: api.KindHTTP, StatusCode: 403, Message: "Restaurant not approved"}, exitForbidden},
		{"http not found", &api.Error{Kind: api.KindHTTP, StatusCode: 404, Message: "Item not found"}, exitNotFound},
		{"rate limited", &api.Error{Kind: api.KindHTTP, StatusCode: 429, Message: "slow down"}, exitRateLimited},
		{"server", &api.Error{Kind: api.KindHTTP, StatusCode: 502, Message: "bad gateway"}, exitServer},
		{"bad request", &api.Error{Kind: api.KindHTTP, StatusCode: 400, Message: "Name is required"}, exitUsage},
		{"timeout", &api.Error{Kind: api.KindTimeout, Message: api.MsgTimeout}, exitNetwork},
		{"transport", &api.Error{Kind: api.KindTransport, Message: "dial tcp: connection refused"}, exitNetwork},
		{"canceled", &api.Error{Kind: api.KindCanceled, Message: api.MsgCanceled}, exitCanceled},
		{"validation", api.NewValidationError("sort", "x", []string{"name", "price"}), exitUsage},
		{"usage text", errors.New("--price must be positive"), exitUsage},
		{"unknown flag", errors.New("unknown flag: --colour"), exitUsage},
		{"generic", errors.New("disk full"), exitGeneric},
		{"handled keeps code", &handledError{err: errors.New("boom"), exitCode: exitServer}, exitServer},
		{"handled without code", &handledError{err: &resolve.NotFoundError{Query: "x"}}, exitNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestHandledErrorUnwrapsToSentinel(t *testing.T) {
	err := &handledError{err: errors.New("Invalid OTP"), exitCode: exitUsage}
	assert.True(t, errors.Is(err, errAlreadyHandled))
	assert.Equal(t, "Invalid OTP", err.Error())
	assert.Equal(t, exitUsage, err.ExitCode())
}
