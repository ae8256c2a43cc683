// Package github queries the GitHub GraphQL API for repository and organization metadata.
package github

import "fmt"

// APICallError represents a failed GraphQL request.
type APICallError struct {
	Message    string
	StatusCode int
	Cause      error
}

func (e *APICallError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("graphql call failed: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("graphql call failed: %s", msg)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// EnrichmentError indicates that a whole enrichment batch produced no results.
type EnrichmentError struct {
	Kind      string // "companies" or "projects"
	Requested int
	Failures  []error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrichment error: no %s enriched out of %d requested (%d failures)", e.Kind, e.Requested, len(e.Failures))
}

// Unwrap exposes the individual request failures.
func (e *EnrichmentError) Unwrap() []error {
	return e.Failures
}
