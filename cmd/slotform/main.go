// Command slotform validates, runs and tests slot-filling dialogue forms.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/slotform/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()

	// Commands report their own failures; anything else is a flag or
	// argument error from cobra.
	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
