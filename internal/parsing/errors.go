// Package parsing extracts company and project references from the curated README markdown.
package parsing

import "fmt"

// StructureError indicates that a required section heading is missing from the document.
type StructureError struct {
	Heading string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("structure error: heading %q not found", e.Heading)
}

// ParseError indicates that a section was present but yielded no usable entities.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
