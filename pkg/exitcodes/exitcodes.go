// Package exitcodes provides centralized exit code definitions and error
// handling for updock. Exit codes are organized in ranges to categorize
// different types of failures:
//
//	0:     Success (including runs that found zero updates)
//	1-9:   Input/Configuration Errors (e.g., invalid flag values)
//	10-19: Manifest Processing Errors (Dockerfile / compose handling)
//	20-29: Runtime Errors (I/O, registry transport)
//	30-39: Internal Errors
package exitcodes

import (
	"errors"
	"fmt"
)

// Exit code constants organized by category
const (
	// Success (0)
	ExitSuccess = 0

	// Input/Configuration Errors (1-9)
	ExitInputConfigurationError = 2 // General configuration error (bad skip list, policy override syntax)
	ExitManifestNotFound        = 4 // Neither manifest present while its check was explicitly requested

	// Manifest Processing Errors (10-19)
	ExitDockerfileProcessingError = 10 // Failed to process the Dockerfile
	ExitComposeProcessingError    = 11 // Failed to process the compose file

	// Runtime Errors (20-29)
	ExitGeneralRuntimeError   = 20 // General runtime/system error
	ExitIOError               = 21 // IO operation error
	ExitRegistryTransportError = 22 // Registry endpoint unreachable (no usable transport)

	// Internal Errors (30-39)
	ExitInternalError = 30 // Uncaught failure in command execution
)

// ExitCodeError wraps an error with an exit code for consistent error
// handling. It is used to propagate both error details and the appropriate
// exit code up to main.
type ExitCodeError struct {
	Code int   // Exit code to return
	Err  error // Underlying error
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d: %v", e.Code, e.Err)
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

// IsExitCodeError checks if an error is an ExitCodeError and returns its code.
// Returns false and 0 if the error is not an ExitCodeError.
func IsExitCodeError(err error) (int, bool) {
	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

// CodeDescriptions maps exit codes to their human-readable descriptions
var CodeDescriptions = map[int]string{
	ExitSuccess:                    "Success",
	ExitInputConfigurationError:    "General configuration error",
	ExitManifestNotFound:           "Requested manifest file not found",
	ExitDockerfileProcessingError:  "Failed to process Dockerfile",
	ExitComposeProcessingError:     "Failed to process compose file",
	ExitGeneralRuntimeError:        "General runtime/system error",
	ExitIOError:                    "IO operation error",
	ExitRegistryTransportError:     "Registry endpoint unreachable",
	ExitInternalError:              "Internal error in command execution",
}
