package main

import (
	"fmt"
	"os"

	"github.com/updock-dev/updock/pkg/exitcodes"
)

// main runs the root command and maps errors to exit codes. Fatal errors
// carry their code via exitcodes.ExitCodeError; anything uncaught exits
// with the internal error code and a full trace.
func main() {
	if err := Execute(); err != nil {
		if code, ok := exitcodes.IsExitCodeError(err); ok {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(code)
		}
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(exitcodes.ExitInternalError)
	}
}
