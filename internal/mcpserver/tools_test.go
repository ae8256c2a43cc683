package mcpserver

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/readme-aggregator/internal/pipeline"
	"github.com/jonathan/readme-aggregator/internal/search"
	"github.com/jonathan/readme-aggregator/internal/types"
)

type stubReader struct {
	companies []types.EnrichedCompany
	projects  []types.EnrichedProject
	searchErr error
}

func newStubReader() *stubReader {
	return &stubReader{
		companies: []types.EnrichedCompany{
			{Login: "acme", Name: "Acme Inc", Repositories: []types.EnrichedProject{
				{NameWithOwner: "acme/widget", StargazerCount: 40, OpenIssues: 3},
				{NameWithOwner: "acme/gizmo", StargazerCount: 2, OpenIssues: 1},
			}},
		},
		projects: []types.EnrichedProject{
			{NameWithOwner: "acme/widget", Languages: []types.Language{{Name: "Go", Size: 5}}},
			{NameWithOwner: "jsorg/bundler", Languages: []types.Language{{Name: "TypeScript", Size: 5}}},
		},
	}
}

func (s *stubReader) FetchCompany(_ context.Context, login string) (*types.EnrichedCompany, bool) {
	for _, c := range s.companies {
		if strings.EqualFold(c.Login, login) {
			return &c, true
		}
	}
	return nil, false
}

func (s *stubReader) FetchAllCompanies(context.Context) []types.EnrichedCompany { return s.companies }

func (s *stubReader) FetchAllRepositories(context.Context) []types.EnrichedProject { return s.projects }

func (s *stubReader) SearchRepositories(_ context.Context, query string, _ int) ([]search.Hit, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	var hits []search.Hit
	for _, p := range s.projects {
		if strings.Contains(p.NameWithOwner, query) {
			hits = append(hits, search.Hit{Project: p, Score: 0.5})
		}
	}
	return hits, nil
}

func (s *stubReader) Status() pipeline.Status {
	return pipeline.Status{
		Fresh:       true,
		LastUpdated: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Companies:   len(s.companies),
		Projects:    len(s.projects),
		SnapshotID:  "snap-1",
	}
}

func TestListCompanies(t *testing.T) {
	tools := NewTools(newStubReader())

	_, out, err := tools.ListCompanies(context.Background(), nil, ListCompaniesInput{})
	require.NoError(t, err)

	require.Equal(t, 1, out.Count)
	assert.Equal(t, CompanySummary{
		Login: "acme", Name: "Acme Inc", Repositories: 2, TotalStars: 42, OpenIssues: 4,
	}, out.Companies[0])
}

func TestGetCompany(t *testing.T) {
	tools := NewTools(newStubReader())

	_, out, err := tools.GetCompany(context.Background(), nil, GetCompanyInput{Login: "ACME"})
	require.NoError(t, err)
	assert.Equal(t, "acme", out.Company.Login)

	_, _, err = tools.GetCompany(context.Background(), nil, GetCompanyInput{Login: "nobody"})
	assert.ErrorContains(t, err, "not found")

	_, _, err = tools.GetCompany(context.Background(), nil, GetCompanyInput{Login: "  "})
	assert.ErrorContains(t, err, "login is required")
}

func TestListRepositories_LanguageFilter(t *testing.T) {
	tools := NewTools(newStubReader())

	_, all, err := tools.ListRepositories(context.Background(), nil, ListRepositoriesInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Count)

	_, filtered, err := tools.ListRepositories(context.Background(), nil, ListRepositoriesInput{Language: "typescript"})
	require.NoError(t, err)
	require.Equal(t, 1, filtered.Count)
	assert.Equal(t, "jsorg/bundler", filtered.Repositories[0].NameWithOwner)
}

func TestSearchRepositories(t *testing.T) {
	reader := newStubReader()
	tools := NewTools(reader)

	_, out, err := tools.SearchRepositories(context.Background(), nil, SearchRepositoriesInput{Query: "widget"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)

	_, none, err := tools.SearchRepositories(context.Background(), nil, SearchRepositoriesInput{Query: "zzz"})
	require.NoError(t, err)
	assert.NotNil(t, none.Hits)

	reader.searchErr = search.ErrEmptyQuery
	_, _, err = tools.SearchRepositories(context.Background(), nil, SearchRepositoriesInput{})
	assert.True(t, errors.Is(err, search.ErrEmptyQuery))
}

func TestRefreshStatus(t *testing.T) {
	tools := NewTools(newStubReader())

	_, out, err := tools.RefreshStatus(context.Background(), nil, RefreshStatusInput{})
	require.NoError(t, err)

	assert.True(t, out.Fresh)
	assert.Equal(t, "2024-05-01T12:00:00Z", out.LastUpdated)
	assert.Equal(t, "snap-1", out.SnapshotID)
}

func TestServer_InMemorySession(t *testing.T) {
	ctx := context.Background()
	server := New(newStubReader(), "test")

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer func() { _ = serverSession.Close() }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer func() { _ = session.Close() }()

	listed, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(listed.Tools))
	for _, tool := range listed.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"get_company", "list_companies", "list_repositories", "refresh_status", "search_repositories"}, names)

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_company",
		Arguments: map[string]any{"login": "acme"},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	structured, ok := result.StructuredContent.(map[string]any)
	require.True(t, ok)
	company, ok := structured["company"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "acme", company["login"])

	missing, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_company",
		Arguments: map[string]any{"login": "nobody"},
	})
	require.NoError(t, err)
	assert.True(t, missing.IsError)
}
