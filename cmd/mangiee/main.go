// Command mangiee manages a Mangiee restaurant account from the terminal.
package main

import (
	"context"
	"os"

	"github.com/mangiee/restaurant-cli/internal/cmd"
)

var (
	executeCmd  = cmd.Execute
	mapExitCode = cmd.ExitCode
	terminate   = os.Exit
)

func run(args []string) int {
	if err := executeCmd(context.Background(), args); err != nil {
		return mapExitCode(err)
	}
	return 0
}

func main() {
	terminate(run(os.Args[1:]))
}
