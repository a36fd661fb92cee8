package library

import "fmt"

// LibraryError reports a library-coordinator invariant violation: a nil
// artist where one is required, a malformed GUID, or an empty storage list.
type LibraryError struct {
	Op     string
	Reason string
}

func (e LibraryError) Error() string {
	return fmt.Sprintf("library: %s: %s", e.Op, e.Reason)
}
