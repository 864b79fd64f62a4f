package iocontext

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestDefaultIO(t *testing.T) {
	streams := DefaultIO()
	if streams.Out == nil || streams.ErrOut == nil || streams.In == nil {
		t.Error("DefaultIO should return non-nil streams")
	}
}

func TestWithIO(t *testing.T) {
	out := &bytes.Buffer{}
	streams := &IO{Out: out, ErrOut: &bytes.Buffer{}, In: strings.NewReader("123456\n")}
	ctx := WithIO(context.Background(), streams)

	if got := GetIO(ctx); got.Out != out {
		t.Error("GetIO should return the IO set with WithIO")
	}
}

func TestGetIO_DefaultsWhenNotSet(t *testing.T) {
	if GetIO(context.Background()) == nil {
		t.Error("GetIO should return default IO when not set")
	}
}

func TestCanPrompt_NonFileReader(t *testing.T) {
	streams := &IO{In: strings.NewReader("")}
	if streams.CanPrompt() {
		t.Error("a string reader is never a terminal")
	}
}
