package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectRef_OwnerAndRepo(t *testing.T) {
	ref := ProjectRef{Name: "foo/bar"}
	assert.Equal(t, "foo", ref.Owner())
	assert.Equal(t, "bar", ref.Repo())

	bare := ProjectRef{Name: "foo"}
	assert.Equal(t, "foo", bare.Owner())
	assert.Equal(t, "", bare.Repo())
}

func TestEnrichedCompany_Totals(t *testing.T) {
	company := EnrichedCompany{
		Login: "acme",
		Repositories: []EnrichedProject{
			{NameWithOwner: "acme/a", StargazerCount: 10, OpenIssues: 2},
			{NameWithOwner: "acme/b", StargazerCount: 5, OpenIssues: 1},
		},
	}
	assert.Equal(t, 15, company.TotalStars())
	assert.Equal(t, 3, company.TotalOpenIssues())
	assert.Zero(t, EnrichedCompany{}.TotalStars())
}

func TestEnrichedProject_PrimaryLanguage(t *testing.T) {
	assert.Equal(t, "", EnrichedProject{}.PrimaryLanguage())
	p := EnrichedProject{Languages: []Language{{Name: "Go", Size: 100}, {Name: "Shell", Size: 3}}}
	assert.Equal(t, "Go", p.PrimaryLanguage())
}
