// Package mcpserver exposes the aggregated data as Model Context Protocol tools over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonathan/readme-aggregator/internal/pipeline"
	"github.com/jonathan/readme-aggregator/internal/search"
	"github.com/jonathan/readme-aggregator/internal/types"
)

// Reader is the read surface the tools depend on. *pipeline.Service implements it.
type Reader interface {
	FetchCompany(ctx context.Context, login string) (*types.EnrichedCompany, bool)
	FetchAllCompanies(ctx context.Context) []types.EnrichedCompany
	FetchAllRepositories(ctx context.Context) []types.EnrichedProject
	SearchRepositories(ctx context.Context, query string, limit int) ([]search.Hit, error)
	Status() pipeline.Status
}

// Tools holds the tool handlers.
type Tools struct {
	reader Reader
}

// NewTools creates tool handlers backed by reader.
func NewTools(reader Reader) *Tools {
	return &Tools{reader: reader}
}

// CompanySummary is one organization without its repository list.
type CompanySummary struct {
	Login        string `json:"login"`
	Name         string `json:"name,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	Repositories int    `json:"repositories"`
	TotalStars   int    `json:"total_stars"`
	OpenIssues   int    `json:"open_issues"`
}

func summarize(c types.EnrichedCompany) CompanySummary {
	return CompanySummary{
		Login:        c.Login,
		Name:         c.Name,
		AvatarURL:    c.AvatarURL,
		Repositories: len(c.Repositories),
		TotalStars:   c.TotalStars(),
		OpenIssues:   c.TotalOpenIssues(),
	}
}

// ListCompaniesInput defines input for list_companies tool
type ListCompaniesInput struct{}

// ListCompaniesOutput defines output for list_companies tool
type ListCompaniesOutput struct {
	Companies []CompanySummary `json:"companies"`
	Count     int              `json:"count"`
}

// ListCompanies returns every organization with star and issue totals
func (t *Tools) ListCompanies(ctx context.Context, _ *mcp.CallToolRequest, _ ListCompaniesInput) (*mcp.CallToolResult, ListCompaniesOutput, error) {
	companies := t.reader.FetchAllCompanies(ctx)
	summaries := make([]CompanySummary, 0, len(companies))
	for _, c := range companies {
		summaries = append(summaries, summarize(c))
	}
	return nil, ListCompaniesOutput{Companies: summaries, Count: len(summaries)}, nil
}

// GetCompanyInput defines input for get_company tool
type GetCompanyInput struct {
	Login string `json:"login" jsonschema:"GitHub organization login, case-insensitive"`
}

// GetCompanyOutput defines output for get_company tool
type GetCompanyOutput struct {
	Company types.EnrichedCompany `json:"company"`
}

// GetCompany returns one organization with its repositories
func (t *Tools) GetCompany(ctx context.Context, _ *mcp.CallToolRequest, input GetCompanyInput) (*mcp.CallToolResult, GetCompanyOutput, error) {
	login := strings.TrimSpace(input.Login)
	if login == "" {
		return nil, GetCompanyOutput{}, fmt.Errorf("login is required")
	}
	company, ok := t.reader.FetchCompany(ctx, login)
	if !ok {
		return nil, GetCompanyOutput{}, fmt.Errorf("company %q not found", login)
	}
	return nil, GetCompanyOutput{Company: normalizeCompany(*company)}, nil
}

// ListRepositoriesInput defines input for list_repositories tool
type ListRepositoriesInput struct {
	Language string `json:"language,omitempty" jsonschema:"only repositories using this language"`
}

// ListRepositoriesOutput defines output for list_repositories tool
type ListRepositoriesOutput struct {
	Repositories []types.EnrichedProject `json:"repositories"`
	Count        int                     `json:"count"`
}

// ListRepositories returns enriched repositories in README order
func (t *Tools) ListRepositories(ctx context.Context, _ *mcp.CallToolRequest, input ListRepositoriesInput) (*mcp.CallToolResult, ListRepositoriesOutput, error) {
	projects := t.reader.FetchAllRepositories(ctx)
	out := make([]types.EnrichedProject, 0, len(projects))
	for _, p := range projects {
		if input.Language == "" || usesLanguage(p, input.Language) {
			out = append(out, normalizeProject(p))
		}
	}
	return nil, ListRepositoriesOutput{Repositories: out, Count: len(out)}, nil
}

func usesLanguage(p types.EnrichedProject, language string) bool {
	for _, l := range p.Languages {
		if strings.EqualFold(l.Name, language) {
			return true
		}
	}
	return false
}

// SearchRepositoriesInput defines input for search_repositories tool
type SearchRepositoriesInput struct {
	Query string `json:"query" jsonschema:"full-text query over names, descriptions and languages"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of hits (default 10, max 50)"`
}

// SearchRepositoriesOutput defines output for search_repositories tool
type SearchRepositoriesOutput struct {
	Hits  []search.Hit `json:"hits"`
	Count int          `json:"count"`
}

// SearchRepositories runs a full-text query
func (t *Tools) SearchRepositories(ctx context.Context, _ *mcp.CallToolRequest, input SearchRepositoriesInput) (*mcp.CallToolResult, SearchRepositoriesOutput, error) {
	hits, err := t.reader.SearchRepositories(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, SearchRepositoriesOutput{}, fmt.Errorf("search failed: %w", err)
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	for i := range hits {
		hits[i].Project = normalizeProject(hits[i].Project)
	}
	return nil, SearchRepositoriesOutput{Hits: hits, Count: len(hits)}, nil
}

// RefreshStatusInput defines input for refresh_status tool
type RefreshStatusInput struct{}

// RefreshStatusOutput defines output for refresh_status tool
type RefreshStatusOutput struct {
	Fresh       bool   `json:"fresh"`
	LastUpdated string `json:"last_updated"`
	Companies   int    `json:"companies"`
	Projects    int    `json:"projects"`
	SnapshotID  string `json:"snapshot_id,omitempty"`
}

// RefreshStatus reports cache freshness without triggering a refresh
func (t *Tools) RefreshStatus(_ context.Context, _ *mcp.CallToolRequest, _ RefreshStatusInput) (*mcp.CallToolResult, RefreshStatusOutput, error) {
	status := t.reader.Status()
	return nil, RefreshStatusOutput{
		Fresh:       status.Fresh,
		LastUpdated: status.LastUpdated.Format(time.RFC3339),
		Companies:   status.Companies,
		Projects:    status.Projects,
		SnapshotID:  status.SnapshotID,
	}, nil
}

// Structured output is validated against schemas inferred from the output
// types, which do not admit null arrays.
func normalizeProject(p types.EnrichedProject) types.EnrichedProject {
	if p.Languages == nil {
		p.Languages = []types.Language{}
	}
	return p
}

func normalizeCompany(c types.EnrichedCompany) types.EnrichedCompany {
	repos := make([]types.EnrichedProject, 0, len(c.Repositories))
	for _, p := range c.Repositories {
		repos = append(repos, normalizeProject(p))
	}
	c.Repositories = repos
	return c
}

// Register adds every tool to server.
func (t *Tools) Register(server *mcp.Server) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_companies",
			Description: "List every organization from the README with repository count, total stars and open issues",
		},
		t.ListCompanies,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_company",
			Description: "Get one organization by GitHub login, including its most starred public repositories",
		},
		t.GetCompany,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_repositories",
			Description: "List the enriched repositories from the README, optionally filtered by language",
		},
		t.ListRepositories,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_repositories",
			Description: "Full-text search over repository names, descriptions and languages",
		},
		t.SearchRepositories,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "refresh_status",
			Description: "Report whether the cached data is fresh, when it was last updated and the snapshot backing it",
		},
		t.RefreshStatus,
	)
}
