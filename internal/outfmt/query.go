package outfmt

import (
	"context"
	"io"

	"github.com/mangiee/restaurant-cli/internal/filter"
)

type queryKey struct{}

// WithQuery stores the --query expression (aliases allowed) in ctx.
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, queryKey{}, query)
}

func GetQuery(ctx context.Context) string {
	if q, ok := ctx.Value(queryKey{}).(string); ok {
		return q
	}
	return ""
}

// WriteJSONFiltered writes v as JSON after running query over it. Without a
// query struct field order is kept. compact=true puts the result on one line.
func WriteJSONFiltered(w io.Writer, v any, query string, compact bool) error {
	if query == "" {
		return WriteJSONMaybeCompact(w, emptyListForNil(v), compact)
	}
	result, err := ApplyQuery(v, query)
	if err != nil {
		return err
	}
	return WriteJSONMaybeCompact(w, result, compact)
}

// ApplyQuery returns v in its wire shape with query applied. The result
// always uses JSON field names, even with no query, so templates and jq
// address the same keys the API sends.
func ApplyQuery(v any, query string) (any, error) {
	data, err := toWire(v)
	if err != nil {
		return nil, err
	}
	return filter.Apply(data, query)
}
