package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/readme-aggregator/internal/schemas"
	"github.com/jonathan/readme-aggregator/internal/types"
)

// DefaultEndpoint is the public GitHub GraphQL endpoint.
const DefaultEndpoint = "https://api.github.com/graphql"

// DefaultTimeout bounds a single GraphQL request.
const DefaultTimeout = 20 * time.Second

// DefaultConcurrency bounds the number of in-flight requests per batch.
const DefaultConcurrency = 8

// Options configures a Client.
type Options struct {
	Endpoint    string
	Token       string
	Timeout     time.Duration // per request
	Concurrency int
	HTTPClient  *http.Client
	Logger      *log.Logger
}

// Client issues GraphQL queries against the code host.
type Client struct {
	endpoint    string
	token       string
	timeout     time.Duration
	concurrency int
	httpClient  *http.Client
	logger      *log.Logger
}

// NewClient creates a client, filling unset options with defaults.
func NewClient(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Client{
		endpoint:    opts.Endpoint,
		token:       opts.Token,
		timeout:     opts.Timeout,
		concurrency: opts.Concurrency,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
	}
}

type graphQLRequest struct {
	Query     string            `json:"query"`
	Variables map[string]string `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

// QueryProject fetches metadata for one repository.
func (c *Client) QueryProject(ctx context.Context, ref types.ProjectRef) (*types.EnrichedProject, error) {
	owner, repo := ref.Owner(), ref.Repo()
	if owner == "" || repo == "" {
		return nil, &APICallError{Message: fmt.Sprintf("invalid project name %q", ref.Name)}
	}

	data, err := c.do(ctx, repositoryQuery, map[string]string{
		"repoOwner": owner,
		"repoName":  repo,
	})
	if err != nil {
		return nil, err
	}
	if err := schemas.ValidatePayload(schemas.Repository, data); err != nil {
		return nil, &APICallError{Message: "invalid repository payload", Cause: err}
	}

	var payload struct {
		Repository *repositoryNode `json:"repository"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &APICallError{Message: "failed to decode repository payload", Cause: err}
	}

	project := payload.Repository.toProject()
	project.ReadmeDescription = ref.Description
	return &project, nil
}

// QueryCompany fetches an organization and its most starred public repositories.
func (c *Client) QueryCompany(ctx context.Context, ref types.CompanyRef) (*types.EnrichedCompany, error) {
	if strings.TrimSpace(ref.Name) == "" {
		return nil, &APICallError{Message: "empty organization login"}
	}

	data, err := c.do(ctx, organizationQuery, map[string]string{"login": ref.Name})
	if err != nil {
		return nil, err
	}
	if err := schemas.ValidatePayload(schemas.Organization, data); err != nil {
		return nil, &APICallError{Message: "invalid organization payload", Cause: err}
	}

	var payload struct {
		Organization *organizationNode `json:"organization"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &APICallError{Message: "failed to decode organization payload", Cause: err}
	}

	company := payload.Organization.toCompany()
	return &company, nil
}

// do posts one query and returns the raw "data" object.
func (c *Client) do(ctx context.Context, query string, variables map[string]string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, &APICallError{Message: "failed to encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &APICallError{Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Authorization", "bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APICallError{Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APICallError{Message: "failed to read response body", StatusCode: resp.StatusCode, Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APICallError{Message: "unexpected response", StatusCode: resp.StatusCode}
	}

	var parsed graphQLResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &APICallError{Message: "failed to decode response", StatusCode: resp.StatusCode, Cause: err}
	}

	if len(parsed.Errors) > 0 {
		messages := make([]string, 0, len(parsed.Errors))
		for _, e := range parsed.Errors {
			messages = append(messages, e.Message)
		}
		return nil, &APICallError{Message: strings.Join(messages, "; ")}
	}
	if len(parsed.Data) == 0 || string(parsed.Data) == "null" {
		return nil, &APICallError{Message: "response has no data"}
	}

	return parsed.Data, nil
}

type repositoryNode struct {
	OpenIssues *struct {
		TotalCount int `json:"totalCount"`
	} `json:"openIssues"`
	StargazerCount int    `json:"stargazerCount"`
	NameWithOwner  string `json:"nameWithOwner"`
	Languages      *struct {
		TotalSize int `json:"totalSize"`
		Edges     []struct {
			Size int `json:"size"`
			Node struct {
				Name string `json:"name"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"languages"`
	OpenGraphImageURL *string `json:"openGraphImageUrl"`
	Description       *string `json:"description"`
	DefaultBranchRef  *struct {
		Target *struct {
			CommittedDate string `json:"committedDate"`
		} `json:"target"`
	} `json:"defaultBranchRef"`
}

func (n *repositoryNode) toProject() types.EnrichedProject {
	project := types.EnrichedProject{
		NameWithOwner:  n.NameWithOwner,
		StargazerCount: n.StargazerCount,
		Languages:      []types.Language{},
	}
	if n.OpenIssues != nil {
		project.OpenIssues = n.OpenIssues.TotalCount
	}
	if n.Description != nil {
		project.Description = *n.Description
	}
	if n.OpenGraphImageURL != nil {
		project.OpenGraphImageURL = *n.OpenGraphImageURL
	}
	if n.Languages != nil {
		project.LanguagesTotalSize = n.Languages.TotalSize
		for _, edge := range n.Languages.Edges {
			project.Languages = append(project.Languages, types.Language{Name: edge.Node.Name, Size: edge.Size})
		}
	}
	if n.DefaultBranchRef != nil && n.DefaultBranchRef.Target != nil {
		if committed, err := time.Parse(time.RFC3339, n.DefaultBranchRef.Target.CommittedDate); err == nil {
			project.LastCommitDate = &committed
		}
	}
	return project
}

type organizationNode struct {
	Name         *string `json:"name"`
	AvatarURL    *string `json:"avatarUrl"`
	Login        string  `json:"login"`
	Repositories struct {
		Nodes []repositoryNode `json:"nodes"`
	} `json:"repositories"`
}

func (n *organizationNode) toCompany() types.EnrichedCompany {
	company := types.EnrichedCompany{
		Login:        n.Login,
		Repositories: make([]types.EnrichedProject, 0, len(n.Repositories.Nodes)),
	}
	if n.Name != nil {
		company.Name = *n.Name
	}
	if n.AvatarURL != nil {
		company.AvatarURL = *n.AvatarURL
	}
	for i := range n.Repositories.Nodes {
		company.Repositories = append(company.Repositories, n.Repositories.Nodes[i].toProject())
	}
	return company
}
