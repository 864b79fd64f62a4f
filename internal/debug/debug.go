// Package debug provides context-based debug mode with structured logging.
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

type contextKey string

const debugKey contextKey = "debug_enabled"

// Log formats accepted by --log-format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// WithDebug returns a context with debug mode enabled/disabled.
func WithDebug(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, debugKey, enabled)
}

// IsEnabled returns true if debug mode is enabled in the context.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(debugKey).(bool); ok {
		return v
	}
	return false
}

// Options control the default logger.
type Options struct {
	Debug  bool
	Format string
	Writer io.Writer
	// NoColor disables ANSI colours even on a terminal.
	NoColor bool
}

// SetupLogger configures slog based on debug mode.
func SetupLogger(debugEnabled bool) {
	Setup(Options{Debug: debugEnabled})
}

// Setup installs the default slog logger. Text output goes through tint and
// is coloured only when the writer is a terminal.
func Setup(opts Options) *slog.Logger {
	logger := slog.New(NewHandler(opts))
	slog.SetDefault(logger)
	return logger
}

// NewHandler builds the handler Setup installs.
func NewHandler(opts Options) slog.Handler {
	level := slog.LevelWarn
	if opts.Debug {
		level = slog.LevelDebug
	}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	if strings.EqualFold(strings.TrimSpace(opts.Format), FormatJSON) {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    opts.NoColor || !isTerminal(w),
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
