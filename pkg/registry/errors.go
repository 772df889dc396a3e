package registry

import "fmt"

// MalformedResponseError indicates the registry answered but the response
// was missing an expected field. This is recoverable for the single image
// being processed; the caller logs it and treats the image as "no change".
type MalformedResponseError struct {
	Repo  string
	Field string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("registry response for %s missing %q field", e.Repo, e.Field)
}

// TransportError indicates the registry endpoint could not be reached or
// the exchange failed below the application level. This is fatal for the
// whole run.
type TransportError struct {
	Repo string
	Op   string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("registry %s for %s: %v", e.Op, e.Repo, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
