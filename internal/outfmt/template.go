package outfmt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"
)

type templateKey struct{}

// WithTemplate stores the --template text in ctx.
func WithTemplate(ctx context.Context, tmpl string) context.Context {
	return context.WithValue(ctx, templateKey{}, tmpl)
}

func GetTemplate(ctx context.Context) string {
	if tmpl, ok := ctx.Value(templateKey{}).(string); ok {
		return tmpl
	}
	return ""
}

// Money formats a rupee amount with two decimals.
func Money(v float64) string {
	return "₹" + decimal.NewFromFloat(v).StringFixed(2)
}

// Stars renders a 0-5 rating as filled and empty stars plus the number.
func Stars(rating float64) string {
	n := int(rating + 0.5)
	n = max(0, min(n, 5))
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n) + " " + decimal.NewFromFloat(rating).StringFixed(1)
}

// templateNumber accepts what a decoded payload holds for a price or rating:
// a JSON number, or a numeric string as some order totals arrive.
func templateNumber(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return d.InexactFloat64(), nil
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}

var templateFuncs = template.FuncMap{
	"json": func(val any) (string, error) {
		buf := &bytes.Buffer{}
		enc := json.NewEncoder(buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(val); err != nil {
			return "", err
		}
		return buf.String(), nil
	},
	"money": func(v any) (string, error) {
		n, err := templateNumber(v)
		if err != nil {
			return "", err
		}
		return Money(n), nil
	},
	"stars": func(v any) (string, error) {
		n, err := templateNumber(v)
		if err != nil {
			return "", err
		}
		return Stars(n), nil
	},
	"yesno": func(v any) string {
		if b, ok := v.(bool); ok && b {
			return "yes"
		}
		return "no"
	},
}

// WriteTemplate renders v with a text/template. Besides json the template
// can call money, stars and yesno on payload fields.
func WriteTemplate(w io.Writer, v any, tmpl string) error {
	t, err := template.New("output").Funcs(templateFuncs).Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return formatTemplateError("invalid template", err)
	}
	if err := t.Execute(w, v); err != nil {
		return formatTemplateError("template execution error", err)
	}
	return nil
}

var templateLocationPattern = regexp.MustCompile(`:(\d+):(\d+):`)

func formatTemplateError(kind string, err error) error {
	msg := err.Error()
	if matches := templateLocationPattern.FindStringSubmatch(msg); len(matches) == 3 {
		return fmt.Errorf("%s at line %s, column %s: %s", kind, matches[1], matches[2], msg)
	}
	return fmt.Errorf("%s: %w", kind, err)
}
