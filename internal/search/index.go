// Package search keeps an in-memory full-text index over enriched repositories.
package search

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/jonathan/readme-aggregator/internal/types"
)

// Result limits.
const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// ErrEmptyQuery is returned when a search is issued without terms.
var ErrEmptyQuery = errors.New("search query is empty")

// Hit is one matching repository.
type Hit struct {
	Project types.EnrichedProject `json:"project"`
	Score   float64               `json:"score"`
}

// Index is a repository index that is rebuilt wholesale after every refresh.
// Searches run against the current index while a rebuild prepares the next one.
type Index struct {
	mu       sync.RWMutex
	index    bleve.Index
	projects map[string]types.EnrichedProject
}

// New creates an empty index.
func New() (*Index, error) {
	index, err := newMemIndex()
	if err != nil {
		return nil, err
	}
	return &Index{index: index, projects: map[string]types.EnrichedProject{}}, nil
}

func newMemIndex() (bleve.Index, error) {
	mapping := bleve.NewIndexMapping()
	index, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	return index, nil
}

// Rebuild replaces the indexed repositories with projects.
func (i *Index) Rebuild(projects []types.EnrichedProject) error {
	next, err := newMemIndex()
	if err != nil {
		return err
	}

	byName := make(map[string]types.EnrichedProject, len(projects))
	batch := next.NewBatch()
	for _, project := range projects {
		if project.NameWithOwner == "" {
			continue
		}
		byName[project.NameWithOwner] = project
		if err := batch.Index(project.NameWithOwner, document(project)); err != nil {
			_ = next.Close()
			return fmt.Errorf("failed to index %s: %w", project.NameWithOwner, err)
		}
	}
	if err := next.Batch(batch); err != nil {
		_ = next.Close()
		return fmt.Errorf("failed to write search batch: %w", err)
	}

	i.mu.Lock()
	previous := i.index
	i.index = next
	i.projects = byName
	i.mu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}
	return nil
}

// Search returns the repositories best matching query.
func (i *Index) Search(query string, limit int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.index == nil {
		return nil, errors.New("search index is closed")
	}

	request := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), limit, 0, false)
	result, err := i.index.Search(request)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, match := range result.Hits {
		project, ok := i.projects[match.ID]
		if !ok {
			continue
		}
		hits = append(hits, Hit{Project: project, Score: match.Score})
	}
	return hits, nil
}

// Count returns the number of indexed repositories.
func (i *Index) Count() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.projects)
}

// Close releases the index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.index == nil {
		return nil
	}
	err := i.index.Close()
	i.index = nil
	return err
}

func document(project types.EnrichedProject) map[string]any {
	languages := make([]string, 0, len(project.Languages))
	for _, language := range project.Languages {
		languages = append(languages, language.Name)
	}
	owner, repo, _ := strings.Cut(project.NameWithOwner, "/")
	return map[string]any{
		"name":               project.NameWithOwner,
		"owner":              owner,
		"repo":               repo,
		"description":        project.Description,
		"readme_description": project.ReadmeDescription,
		"languages":          languages,
	}
}
