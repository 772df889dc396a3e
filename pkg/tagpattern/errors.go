package tagpattern

import "fmt"

// UndeclaredPlaceholderError indicates a version string references a build
// variable that was never declared. The affected reference is skipped, never
// fatal.
type UndeclaredPlaceholderError struct {
	Name string
}

func (e *UndeclaredPlaceholderError) Error() string {
	return fmt.Sprintf("undeclared placeholder ${%s} in version string", e.Name)
}

// PolicyParseError indicates a malformed versioning policy override entry.
type PolicyParseError struct {
	Entry string
	Err   error
}

func (e *PolicyParseError) Error() string {
	return fmt.Sprintf("invalid versioning policy entry %q: %v", e.Entry, e.Err)
}

func (e *PolicyParseError) Unwrap() error {
	return e.Err
}
