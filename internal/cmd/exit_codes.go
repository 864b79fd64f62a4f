package cmd

import (
	"errors"
	"strings"

	"github.com/spf13/pflag"

	"github.com/mangiee/restaurant-cli/internal/api"
	"github.com/mangiee/restaurant-cli/internal/config"
	"github.com/mangiee/restaurant-cli/internal/resolve"
)

const (
	exitOK          = 0
	exitGeneric     = 1
	exitUsage       = 2
	exitAuth        = 3
	exitNotFound    = 4
	exitForbidden   = 5
	exitRateLimited = 6
	exitServer      = 7
	exitNetwork     = 8
	exitCanceled    = 130
)

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	var handled *handledError
	if errors.As(err, &handled) {
		if handled.exitCode != 0 {
			return handled.exitCode
		}
		err = handled.err
	}

	if errors.Is(err, config.ErrNotConfigured) {
		return exitAuth
	}
	var notFound *resolve.NotFoundError
	if errors.As(err, &notFound) {
		return exitNotFound
	}
	var ambiguous *resolve.AmbiguousError
	if errors.As(err, &ambiguous) {
		return exitUsage
	}

	if code := exitCodeFromStructured(err); code != 0 {
		return code
	}
	if isUsageError(err) {
		return exitUsage
	}
	return exitGeneric
}

func exitCodeFromStructured(err error) int {
	structured := api.StructuredErrorFromError(err)
	if structured == nil {
		return 0
	}
	switch structured.Code {
	case api.ErrUnauthorized:
		return exitAuth
	case api.ErrForbidden:
		return exitForbidden
	case api.ErrNotFound:
		return exitNotFound
	case api.ErrRateLimited:
		return exitRateLimited
	case api.ErrServerError:
		return exitServer
	case api.ErrTimeout, api.ErrNetwork:
		return exitNetwork
	case api.ErrCanceled:
		return exitCanceled
	case api.ErrBadRequest, api.ErrValidation, api.ErrConflict:
		return exitUsage
	default:
		return 0
	}
}

func isUsageError(err error) bool {
	msg := strings.ToLower(err.Error())
	indicators := []string{
		"unknown command",
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"requires at least",
		"requires exactly",
		"accepts ",
		"invalid argument",
		"invalid value",
		"must be",
		"is required",
		"required flag",
		"cannot be used",
		"cannot be empty",
		"cannot be negative",
		"cannot exceed",
		"conflicts with",
		"nothing to update",
		"unknown endpoint",
		"invalid --",
	}
	for _, indicator := range indicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}
