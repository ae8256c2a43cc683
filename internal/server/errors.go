package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/jonathan/readme-aggregator/internal/github"
	"github.com/jonathan/readme-aggregator/internal/parsing"
	"github.com/jonathan/readme-aggregator/internal/pipeline"
	"github.com/jonathan/readme-aggregator/internal/search"
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		fetchErr   *pipeline.FetchError
		structErr  *parsing.StructureError
		parseErr   *parsing.ParseError
		enrichErr  *github.EnrichmentError
		persistErr *pipeline.PersistenceError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, search.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrSearchUnavailable):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &fetchErr),
		errors.As(err, &structErr),
		errors.As(err, &parseErr),
		errors.As(err, &enrichErr),
		errors.As(err, &persistErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
