// Package filter runs jq expressions (via gojq) over command output.
package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// NormalizeExpression fixes shell-escaped operators and expands aliases.
// Zsh escapes ! to \! even in single quotes, breaking operators like !=.
func NormalizeExpression(expr string) string {
	expr = strings.ReplaceAll(expr, `\!`, `!`)
	return expandAliases(expr)
}

// applyWith is the shared core: normalize the expression, parse, and run jq.
func applyWith(data any, expression string, normalize func(string) string) (any, error) {
	if expression == "" {
		return data, nil
	}

	expression = normalize(expression)
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	results, err := runQuery(query, data)
	if err != nil {
		if list, ok := pageListFallback(data, expression, err); ok {
			if fallbackResults, fallbackErr := runQuery(query, list); fallbackErr == nil {
				results = fallbackResults
				err = nil
			}
		}
	}
	if err != nil {
		return nil, err
	}

	return collapseQueryResults(results), nil
}

func runQuery(query *gojq.Query, data any) ([]any, error) {
	iter := query.Run(data)

	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("filter error: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}

func collapseQueryResults(results []any) any {
	if len(results) == 1 {
		return results[0]
	}
	return results
}

// pageListFallback handles a list query run against a paginated payload
// such as `{"reviews": [...], "pagination": {...}}`: when the object holds
// exactly one array, the query is retried against that array.
func pageListFallback(data any, expression string, runErr error) (any, bool) {
	if !looksLikeListQuery(expression) {
		return nil, false
	}
	if !strings.Contains(runErr.Error(), "expected an object but got: array") {
		return nil, false
	}

	m, ok := data.(map[string]any)
	if !ok {
		return nil, false
	}

	var list []any
	for _, v := range m {
		arr, ok := v.([]any)
		if !ok {
			continue
		}
		if list != nil {
			return nil, false
		}
		list = arr
	}
	return list, list != nil
}

func looksLikeListQuery(expression string) bool {
	expr := strings.TrimSpace(expression)
	for _, prefix := range []string{".[]", "[.[]", "(.[]", "map("} {
		if strings.HasPrefix(expr, prefix) {
			return true
		}
	}
	return false
}

// Apply runs expression over data. Field and function aliases are expanded
// first, so `.it[] | sl(.veg)` works.
func Apply(data any, expression string) (any, error) {
	return applyWith(data, expression, NormalizeExpression)
}

// applyToJSONWith is the shared JSON wrapper: unmarshal, apply, marshal.
func applyToJSONWith(jsonData []byte, expression string, apply func(any, string) (any, error)) ([]byte, error) {
	if expression == "" {
		return jsonData, nil
	}

	var data any
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	result, err := apply(data, expression)
	if err != nil {
		return nil, err
	}

	return json.MarshalIndent(result, "", "  ")
}

// ApplyToJSON applies filter to JSON bytes and returns filtered JSON bytes (pretty-printed).
func ApplyToJSON(jsonData []byte, expression string) ([]byte, error) {
	return applyToJSONWith(jsonData, expression, Apply)
}

// ApplyFromJSON applies a JQ filter to JSON bytes and returns the result as a Go value.
// Unlike ApplyToJSON, this returns the unmarshaled value for the caller to format.
func ApplyFromJSON(jsonData []byte, expression string) (any, error) {
	var data any
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return Apply(data, expression)
}
