package github

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/readme-aggregator/internal/types"
)

// EnrichProjects queries every project concurrently and waits for all of them.
// Failed requests are logged and skipped; results keep the order of refs.
// An EnrichmentError is returned only when nothing could be enriched.
func (c *Client) EnrichProjects(ctx context.Context, refs []types.ProjectRef) ([]types.EnrichedProject, error) {
	slots := make([]*types.EnrichedProject, len(refs))
	failures := c.fanOut(ctx, len(refs), func(ctx context.Context, i int) error {
		project, err := c.QueryProject(ctx, refs[i])
		if err != nil {
			return fmt.Errorf("project %s: %w", refs[i].Name, err)
		}
		slots[i] = project
		return nil
	})

	projects := make([]types.EnrichedProject, 0, len(refs))
	for _, project := range slots {
		if project != nil {
			projects = append(projects, *project)
		}
	}
	if len(projects) == 0 {
		return nil, &EnrichmentError{Kind: "projects", Requested: len(refs), Failures: failures}
	}

	c.logger.Printf("[github] enriched %d/%d projects", len(projects), len(refs))
	return projects, nil
}

// EnrichCompanies queries every organization concurrently and waits for all of them.
// It follows the same failure rules as EnrichProjects.
func (c *Client) EnrichCompanies(ctx context.Context, refs []types.CompanyRef) ([]types.EnrichedCompany, error) {
	slots := make([]*types.EnrichedCompany, len(refs))
	failures := c.fanOut(ctx, len(refs), func(ctx context.Context, i int) error {
		company, err := c.QueryCompany(ctx, refs[i])
		if err != nil {
			return fmt.Errorf("company %s: %w", refs[i].Name, err)
		}
		slots[i] = company
		return nil
	})

	companies := make([]types.EnrichedCompany, 0, len(refs))
	for _, company := range slots {
		if company != nil {
			companies = append(companies, *company)
		}
	}
	if len(companies) == 0 {
		return nil, &EnrichmentError{Kind: "companies", Requested: len(refs), Failures: failures}
	}

	c.logger.Printf("[github] enriched %d/%d companies", len(companies), len(refs))
	return companies, nil
}

// fanOut runs task for indexes [0, n) with at most c.concurrency in flight.
// One failing task never cancels the others. The returned failures are in index order.
func (c *Client) fanOut(ctx context.Context, n int, task func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			errs[i] = task(ctx, i)
			return nil
		})
	}
	_ = g.Wait()

	var failures []error
	for _, err := range errs {
		if err != nil {
			c.logger.Printf("[github] %v", err)
			failures = append(failures, err)
		}
	}
	return failures
}
