package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mangiee/restaurant-cli/internal/api"
	"github.com/mangiee/restaurant-cli/internal/config"
	"github.com/mangiee/restaurant-cli/internal/resolve"
)

// HandleError processes an error and returns a user-friendly message with suggestions
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder

	var apiErr *api.Error
	var structured *api.StructuredError
	var ambiguous *resolve.AmbiguousError

	switch {
	case errors.Is(err, config.ErrNotConfigured):
		msg.WriteString("Not logged in.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: mangiee auth login --phone <10-digit number>\n")
		msg.WriteString("  - Or set MANGIEE_TOKEN for non-interactive use\n")

	case errors.As(err, &ambiguous):
		fmt.Fprintf(&msg, "Error: %s\n\n", err.Error())
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Pass the id instead of the name\n")

	case errors.As(err, &apiErr):
		msg.WriteString(describeAPIError(apiErr))

	case errors.As(err, &structured):
		fmt.Fprintf(&msg, "Error: %s\n", structured.Message)
		if structured.Suggestion != "" {
			fmt.Fprintf(&msg, "\nSuggestion: %s\n", structured.Suggestion)
		}

	default:
		fmt.Fprintf(&msg, "Error: %s\n", err.Error())
	}

	return msg.String()
}

func describeAPIError(e *api.Error) string {
	var msg strings.Builder
	switch e.Kind {
	case api.KindAuth:
		fmt.Fprintf(&msg, "%s\n\n", e.Message)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: mangiee auth login\n")
		msg.WriteString("  - If you use MANGIEE_TOKEN, refresh it\n")

	case api.KindTimeout:
		fmt.Fprintf(&msg, "%s\n\n", e.Message)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Retry in a moment\n")
		msg.WriteString("  - Raise --timeout (or --upload-timeout for uploads)\n")

	case api.KindTransport:
		fmt.Fprintf(&msg, "Network error: %s\n\n", e.Message)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check your internet connection\n")
		msg.WriteString("  - Verify the API URL: mangiee endpoints\n")

	case api.KindCanceled:
		fmt.Fprintf(&msg, "%s\n", e.Message)

	case api.KindRejected:
		fmt.Fprintf(&msg, "Error: %s\n", e.Message)

	case api.KindDecode:
		fmt.Fprintf(&msg, "%s\n\n", e.Message)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Use --debug to see the raw exchange\n")
		msg.WriteString("  - Check that --api-url points at the Mangiee backend\n")

	default:
		fmt.Fprintf(&msg, "API error (HTTP %d): %s\n\n", e.StatusCode, e.Message)
		msg.WriteString(suggestionsForStatusCode(e.StatusCode, e.Message))
	}
	if e.RequestID != "" {
		fmt.Fprintf(&msg, "\nRequest ID: %s\n", e.RequestID)
	}
	return msg.String()
}

func suggestionsForStatusCode(code int, body string) string {
	var suggestions strings.Builder
	suggestions.WriteString("Suggestions:\n")

	switch code {
	case http.StatusBadRequest:
		suggestions.WriteString("  - Check your flag values\n")
		suggestions.WriteString("  - Use --dry-run to preview the request\n")
		if strings.Contains(strings.ToLower(body), "required") {
			suggestions.WriteString("  - A required field may be missing\n")
		}

	case http.StatusForbidden:
		suggestions.WriteString("  - Your restaurant may not be approved yet\n")
		suggestions.WriteString("  - Check: mangiee profile get\n")

	case http.StatusNotFound:
		suggestions.WriteString("  - Check the id is correct\n")
		suggestions.WriteString("  - The resource may have been deleted\n")

	case http.StatusConflict:
		suggestions.WriteString("  - The resource already exists or changed\n")

	case http.StatusUnprocessableEntity:
		suggestions.WriteString("  - Check your input values\n")

	case http.StatusTooManyRequests:
		suggestions.WriteString("  - Wait and retry in a few seconds\n")

	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		suggestions.WriteString("  - Server error, wait and retry\n")

	default:
		suggestions.WriteString("  - Use --debug for more details\n")
	}

	return suggestions.String()
}
