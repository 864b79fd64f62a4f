package main

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubExecute(t *testing.T, exec func(context.Context, []string) error, mapCode func(error) int) {
	t.Helper()
	origExec, origMap, origTerminate := executeCmd, mapExitCode, terminate
	t.Cleanup(func() {
		executeCmd, mapExitCode, terminate = origExec, origMap, origTerminate
	})
	executeCmd = exec
	mapExitCode = mapCode
}

func TestRunPassesArgsThrough(t *testing.T) {
	var got []string
	stubExecute(t, func(_ context.Context, args []string) error {
		got = append([]string(nil), args...)
		return nil
	}, func(error) int {
		t.Fatal("mapExitCode called on success")
		return 99
	})

	assert.Equal(t, 0, run([]string{"items", "list", "-o", "json"}))
	assert.Equal(t, []string{"items", "list", "-o", "json"}, got)
}

func TestRunMapsErrors(t *testing.T) {
	boom := errors.New("boom")
	var mapped error
	stubExecute(t, func(context.Context, []string) error { return boom }, func(err error) int {
		mapped = err
		return 4
	})

	assert.Equal(t, 4, run([]string{"items", "get", "missing"}))
	require.ErrorIs(t, mapped, boom)
}

func TestMainTerminatesWithRunCode(t *testing.T) {
	var got []string
	stubExecute(t, func(_ context.Context, args []string) error {
		got = args
		return errors.New("no session")
	}, func(error) int { return 3 })

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"mangiee", "dashboard", "--json"}

	code := -1
	terminate = func(c int) { code = c }
	main()

	assert.Equal(t, 3, code)
	assert.Equal(t, []string{"dashboard", "--json"}, got)
}
