package pipeline

import "fmt"

// FetchError indicates the upstream document could not be retrieved.
type FetchError struct {
	URL   string
	Cause error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error: %s: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("fetch error: %s", e.URL)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// PersistenceError indicates a snapshot write was rejected or returned a malformed record.
type PersistenceError struct {
	Message string
	Cause   error
}

func (e *PersistenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("persistence error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("persistence error: %s", e.Message)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}
