// Package iocontext carries the command's I/O streams in its context so
// tests can capture output and feed OTP prompts.
package iocontext

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// IO holds the input/output streams for commands.
type IO struct {
	Out    io.Writer
	ErrOut io.Writer
	In     io.Reader
}

// DefaultIO returns the standard IO streams.
func DefaultIO() *IO {
	return &IO{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
		In:     os.Stdin,
	}
}

// CanPrompt reports whether In is an interactive terminal.
func (s *IO) CanPrompt() bool {
	f, ok := s.In.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type ioKey struct{}

// WithIO adds IO streams to a context.
func WithIO(ctx context.Context, streams *IO) context.Context {
	return context.WithValue(ctx, ioKey{}, streams)
}

// GetIO retrieves IO streams from context, defaulting to standard streams.
func GetIO(ctx context.Context) *IO {
	if streams, ok := ctx.Value(ioKey{}).(*IO); ok && streams != nil {
		return streams
	}
	return DefaultIO()
}
