package outfmt

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
)

// Formatter writes a command's result: the raw payload in JSON modes, an
// aligned table or label/value list in text mode.
type Formatter struct {
	ctx       context.Context
	out       io.Writer
	errOut    io.Writer
	tabWriter *tabwriter.Writer
}

func NewFormatter(ctx context.Context, out, errOut io.Writer) *Formatter {
	return &Formatter{
		ctx:       ctx,
		out:       out,
		errOut:    errOut,
		tabWriter: tabwriter.NewWriter(out, 0, 4, 2, ' ', 0),
	}
}

// Output writes data in the JSON mode from ctx; in text mode it does
// nothing and the caller renders rows. A --template renders the wire-shaped
// payload after --query runs. JSONL streams one list element per line.
func (f *Formatter) Output(data any) error {
	if !IsJSON(f.ctx) {
		return nil
	}
	query := GetQuery(f.ctx)
	if tmpl := GetTemplate(f.ctx); tmpl != "" {
		filtered, err := ApplyQuery(data, query)
		if err != nil {
			return err
		}
		return WriteTemplate(f.out, filtered, tmpl)
	}
	if IsJSONL(f.ctx) {
		if query != "" {
			filtered, err := ApplyQuery(data, query)
			if err != nil {
				return err
			}
			return WriteJSONLines(f.out, filtered)
		}
		return WriteJSONLines(f.out, data)
	}
	return WriteJSONFiltered(f.out, data, query, IsCompact(f.ctx))
}

// StartTable writes table headers. Returns true if in text mode.
func (f *Formatter) StartTable(headers []string) bool {
	if IsJSON(f.ctx) {
		return false
	}

	for i, h := range headers {
		if i > 0 {
			_, _ = fmt.Fprint(f.tabWriter, "\t")
		}
		_, _ = fmt.Fprint(f.tabWriter, h)
	}
	_, _ = fmt.Fprintln(f.tabWriter)
	return true
}

// Row writes a single row to the table.
func (f *Formatter) Row(columns ...string) {
	for i, col := range columns {
		if i > 0 {
			_, _ = fmt.Fprint(f.tabWriter, "\t")
		}
		_, _ = fmt.Fprint(f.tabWriter, col)
	}
	_, _ = fmt.Fprintln(f.tabWriter)
}

// Field writes one "Label:  value" line of a detail view. Empty values
// print as "-".
func (f *Formatter) Field(label, value string) {
	if IsJSON(f.ctx) {
		return
	}
	if value == "" {
		value = "-"
	}
	_, _ = fmt.Fprintf(f.tabWriter, "%s:\t%s\n", label, value)
}

// OptionalField is Field that skips empty values entirely.
func (f *Formatter) OptionalField(label, value string) {
	if value == "" {
		return
	}
	f.Field(label, value)
}

// EndTable flushes rows and fields.
func (f *Formatter) EndTable() error {
	return f.tabWriter.Flush()
}

// Empty reports an empty listing on stderr, keeping stdout clean for pipes.
func (f *Formatter) Empty(message string) {
	_, _ = fmt.Fprintln(f.errOut, message)
}
