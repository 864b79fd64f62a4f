// Package outfmt renders command results as tables, JSON or JSON lines.
package outfmt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
)

// Mode represents the output format mode
type Mode int

const (
	// Text is the default human-readable output
	Text Mode = iota
	// JSON outputs structured JSON
	JSON
	// JSONL outputs one JSON document per list element
	JSONL
)

type (
	contextKey struct{}
	compactKey struct{}
)

// Parse parses an output mode string
func Parse(s string) (Mode, error) {
	switch s {
	case "text", "table", "":
		return Text, nil
	case "json":
		return JSON, nil
	case "jsonl", "ndjson":
		return JSONL, nil
	default:
		return Text, fmt.Errorf("invalid output format: %q (use 'text', 'json', 'jsonl' or 'ndjson')", s)
	}
}

// WithMode adds the output mode to the context
func WithMode(ctx context.Context, mode Mode) context.Context {
	return context.WithValue(ctx, contextKey{}, mode)
}

// ModeFromContext retrieves the output mode from context
func ModeFromContext(ctx context.Context) Mode {
	if mode, ok := ctx.Value(contextKey{}).(Mode); ok {
		return mode
	}
	return Text
}

// IsJSON returns true if the context is set to JSON output
func IsJSON(ctx context.Context) bool {
	mode := ModeFromContext(ctx)
	return mode == JSON || mode == JSONL
}

// IsJSONL returns true if the context is set to JSONL output
func IsJSONL(ctx context.Context) bool {
	return ModeFromContext(ctx) == JSONL
}

// WithCompact adds the compact flag to the context
func WithCompact(ctx context.Context, compact bool) context.Context {
	return context.WithValue(ctx, compactKey{}, compact)
}

// IsCompact returns true if compact output mode is set in the context
func IsCompact(ctx context.Context) bool {
	if c, ok := ctx.Value(compactKey{}).(bool); ok {
		return c
	}
	return false
}

// WriteJSON writes a value as pretty-printed JSON
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteJSONMaybeCompact writes JSON, using compact format if compact is true.
func WriteJSONMaybeCompact(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// WriteJSONLines writes each element of a slice as a compact JSON line.
// Anything that is not a slice is written as a single line.
func WriteJSONLines(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return enc.Encode(v)
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return enc.Encode(v)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := enc.Encode(rv.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case JSON:
		return "json"
	case JSONL:
		return "jsonl"
	default:
		return "text"
	}
}
