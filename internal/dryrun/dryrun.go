// Package dryrun previews mutating requests without sending them.
package dryrun

import (
	"context"
	"fmt"
	"io"
	"sort"
)

type contextKey string

const dryRunKey contextKey = "dry_run_enabled"

// WithDryRun returns a context with dry-run mode enabled/disabled.
func WithDryRun(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, dryRunKey, enabled)
}

// IsEnabled returns true if dry-run mode is enabled.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(dryRunKey).(bool); ok {
		return v
	}
	return false
}

// Preview describes a request that would have been sent.
type Preview struct {
	Operation   string
	Resource    string
	Method      string
	Path        string
	Multipart   bool
	Description string
	Details     map[string]any
	Files       []string
	Warnings    []string
}

// Write outputs the preview to the writer. Details are printed in key order.
func (p *Preview) Write(w io.Writer) {
	_, _ = fmt.Fprintf(w, "\n[DRY-RUN] Would %s %s\n", p.Operation, p.Resource)
	_, _ = fmt.Fprintf(w, "───────────────────────────────────────\n")

	if p.Method != "" {
		encoding := "json"
		if p.Multipart {
			encoding = "multipart/form-data"
		}
		_, _ = fmt.Fprintf(w, "%s %s (%s)\n\n", p.Method, p.Path, encoding)
	}

	if p.Description != "" {
		_, _ = fmt.Fprintf(w, "%s\n\n", p.Description)
	}

	if len(p.Details) > 0 {
		keys := make([]string, 0, len(p.Details))
		for k := range p.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "  %s: %v\n", k, p.Details[k])
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(p.Files) > 0 {
		_, _ = fmt.Fprintln(w, "Files:")
		for _, f := range p.Files {
			_, _ = fmt.Fprintf(w, "  + %s\n", f)
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(p.Warnings) > 0 {
		_, _ = fmt.Fprintln(w, "Warnings:")
		for _, warning := range p.Warnings {
			_, _ = fmt.Fprintf(w, "  ! %s\n", warning)
		}
		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintf(w, "───────────────────────────────────────\n")
	_, _ = fmt.Fprintln(w, "No changes made (dry-run mode)")
}
