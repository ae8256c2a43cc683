// Package types provides type definitions for structured data used throughout the readme-aggregator system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"
	"time"
)

// CompanyRef identifies an organization parsed from the README.
// Name is the organization path segment (e.g. "acme-corp").
type CompanyRef struct {
	Name string `json:"name"`
}

// ProjectRef identifies a repository parsed from the README.
type ProjectRef struct {
	Name        string `json:"name"` // "<owner>/<repo>"
	Description string `json:"description"`
}

// Owner returns the repository owner segment of the project name.
func (p ProjectRef) Owner() string {
	owner, _, _ := strings.Cut(p.Name, "/")
	return owner
}

// Repo returns the repository name segment of the project name.
func (p ProjectRef) Repo() string {
	_, repo, _ := strings.Cut(p.Name, "/")
	return repo
}

// Language is one of a repository's languages with its size in bytes.
type Language struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// EnrichedProject is a repository merged with live metadata from the code host.
type EnrichedProject struct {
	NameWithOwner      string     `json:"name_with_owner"`
	Description        string     `json:"description"`
	ReadmeDescription  string     `json:"readme_description,omitempty"`
	StargazerCount     int        `json:"stargazer_count"`
	OpenIssues         int        `json:"open_issues"`
	Languages          []Language `json:"languages"`
	LanguagesTotalSize int        `json:"languages_total_size"`
	OpenGraphImageURL  string     `json:"open_graph_image_url,omitempty"`
	LastCommitDate     *time.Time `json:"last_commit_date,omitempty"`
}

// PrimaryLanguage returns the largest language, or "" when unknown.
func (p EnrichedProject) PrimaryLanguage() string {
	if len(p.Languages) == 0 {
		return ""
	}
	return p.Languages[0].Name
}

// EnrichedCompany is an organization merged with its most starred public repositories.
type EnrichedCompany struct {
	Login        string            `json:"login"`
	Name         string            `json:"name"`
	AvatarURL    string            `json:"avatar_url,omitempty"`
	Repositories []EnrichedProject `json:"repositories"`
}

// TotalStars sums stargazers across the organization's repositories.
func (c EnrichedCompany) TotalStars() int {
	total := 0
	for _, repo := range c.Repositories {
		total += repo.StargazerCount
	}
	return total
}

// TotalOpenIssues sums open issues across the organization's repositories.
func (c EnrichedCompany) TotalOpenIssues() int {
	total := 0
	for _, repo := range c.Repositories {
		total += repo.OpenIssues
	}
	return total
}

// SnapshotPayload is the serialized body of one completed refresh.
type SnapshotPayload struct {
	Success           bool              `json:"success"`
	Companies         []CompanyRef      `json:"companies"`
	Projects          []EnrichedProject `json:"projects"`
	EnrichedCompanies []EnrichedCompany `json:"enriched_companies"`
	Languages         []string          `json:"languages"`
}
