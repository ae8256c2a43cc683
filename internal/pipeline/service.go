// Package pipeline orchestrates the README refresh: fetch, parse, enrich,
// persist and repopulate the freshness cache.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/readme-aggregator/internal/cache"
	"github.com/jonathan/readme-aggregator/internal/db"
	"github.com/jonathan/readme-aggregator/internal/parsing"
	"github.com/jonathan/readme-aggregator/internal/search"
	"github.com/jonathan/readme-aggregator/internal/types"
)

// DefaultReadmeURL is the curated document the aggregator reads.
const DefaultReadmeURL = "https://raw.githubusercontent.com/lirantal/awesome-opensource-israel/master/README.md"

// DefaultRefreshTimeout bounds one full pipeline run.
const DefaultRefreshTimeout = 10 * time.Minute

// Pipeline steps reported through ProgressCallback.
const (
	StepCheckCache      = "check_cache"
	StepFetchDocument   = "fetch_document"
	StepParse           = "parse"
	StepEnrichCompanies = "enrich_companies"
	StepEnrichProjects  = "enrich_projects"
	StepPersist         = "persist"
	StepRepopulateCache = "repopulate_cache"
)

const refreshKey = "refresh"

// DocumentFetcher downloads the raw README.
type DocumentFetcher interface {
	Document(ctx context.Context, url string) (string, error)
}

// Enricher queries the code host for metadata.
type Enricher interface {
	EnrichCompanies(ctx context.Context, refs []types.CompanyRef) ([]types.EnrichedCompany, error)
	EnrichProjects(ctx context.Context, refs []types.ProjectRef) ([]types.EnrichedProject, error)
}

// SnapshotStore persists one record per completed refresh.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, filename string, file []byte) (*db.Snapshot, error)
}

// Index is the repository search index rebuilt after each refresh.
type Index interface {
	Rebuild(projects []types.EnrichedProject) error
	Search(query string, limit int) ([]search.Hit, error)
}

// ProgressEvent represents a progress update during a refresh
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// ProgressCallback is called when refresh progress occurs
type ProgressCallback func(event ProgressEvent)

// Deps are the collaborators of a Service. Index and Logger are optional.
type Deps struct {
	Fetcher  DocumentFetcher
	Enricher Enricher
	Store    SnapshotStore
	Cache    *cache.Store
	Index    Index
	Logger   *log.Logger
}

// Options configures a Service.
type Options struct {
	ReadmeURL      string
	MaxAge         time.Duration
	RefreshTimeout time.Duration
	OnProgress     ProgressCallback
	Now            func() time.Time
}

// Result is the outcome of a refresh.
type Result struct {
	FromCache bool
	Snapshot  *db.Snapshot
	Companies []types.EnrichedCompany
	Projects  []types.EnrichedProject
	Parsed    *parsing.Result // nil when served from cache
}

// Status summarizes the cache.
type Status struct {
	Fresh       bool      `json:"fresh"`
	LastUpdated time.Time `json:"last_updated"`
	Companies   int       `json:"companies"`
	Projects    int       `json:"projects"`
	SnapshotID  string    `json:"snapshot_id,omitempty"`
}

// Service runs the refresh pipeline and serves reads from the cache.
type Service struct {
	fetcher  DocumentFetcher
	enricher Enricher
	store    SnapshotStore
	cache    *cache.Store
	index    Index
	logger   *log.Logger
	opts     Options
	group    singleflight.Group
}

// New creates a Service.
func New(deps Deps, opts Options) *Service {
	if deps.Cache == nil {
		deps.Cache = cache.New()
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if opts.ReadmeURL == "" {
		opts.ReadmeURL = DefaultReadmeURL
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = cache.DefaultMaxAge
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = DefaultRefreshTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		fetcher:  deps.Fetcher,
		enricher: deps.Enricher,
		store:    deps.Store,
		cache:    deps.Cache,
		index:    deps.Index,
		logger:   deps.Logger,
		opts:     opts,
	}
}

// Refresh returns cached data when fresh, otherwise runs the pipeline.
// Concurrent callers share one in-flight run. On failure the cache is left as it was.
func (s *Service) Refresh(ctx context.Context) (*Result, error) {
	s.emit(StepCheckCache, "checking in-memory store")
	if result, ok := s.cached(); ok {
		s.logger.Printf("[refresh] serving from memory (last updated %s)", result.Snapshot.CreatedAt.Format(time.RFC3339))
		return result, nil
	}
	return s.runShared(ctx, false)
}

// ForceRefresh runs the pipeline even when the cache is fresh.
func (s *Service) ForceRefresh(ctx context.Context) (*Result, error) {
	return s.runShared(ctx, true)
}

// Populate is the scheduler entry point. Errors are logged, never returned.
func (s *Service) Populate(ctx context.Context) {
	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Printf("[refresh] failed: %v", err)
	}
}

func (s *Service) runShared(ctx context.Context, force bool) (*Result, error) {
	value, err, shared := s.group.Do(refreshKey, func() (any, error) {
		// A flight that finished just before this one may already have filled the cache.
		if !force {
			if result, ok := s.cached(); ok {
				return result, nil
			}
		}
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.RefreshTimeout)
		defer cancel()
		return s.run(runCtx)
	})
	if shared {
		s.logger.Printf("[refresh] joined in-flight refresh")
	}
	if err != nil {
		return nil, err
	}
	return value.(*Result), nil
}

func (s *Service) run(ctx context.Context) (*Result, error) {
	started := s.opts.Now()

	s.emit(StepFetchDocument, "fetching "+s.opts.ReadmeURL)
	s.logger.Printf("[refresh] fetching %s", s.opts.ReadmeURL)
	doc, err := s.fetcher.Document(ctx, s.opts.ReadmeURL)
	if err != nil {
		return nil, &FetchError{URL: s.opts.ReadmeURL, Cause: err}
	}

	s.emit(StepParse, "parsing README")
	parsed, err := parsing.Parse(doc)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("[refresh] parsed %d companies, %d projects, %d languages",
		len(parsed.Companies), len(parsed.Projects), len(parsed.Languages))

	s.emit(StepEnrichCompanies, fmt.Sprintf("enriching %d companies", len(parsed.Companies)))
	companies, err := s.enricher.EnrichCompanies(ctx, parsed.Companies)
	if err != nil {
		return nil, err
	}

	s.emit(StepEnrichProjects, fmt.Sprintf("enriching %d projects", len(parsed.Projects)))
	projects, err := s.enricher.EnrichProjects(ctx, parsed.Projects)
	if err != nil {
		return nil, err
	}

	s.emit(StepPersist, "saving snapshot")
	snapshot, err := s.persist(ctx, started, parsed, companies, projects)
	if err != nil {
		return nil, err
	}

	s.emit(StepRepopulateCache, "setting to memory")
	s.cache.SetAll(map[string]any{
		cache.KeyJSONData:  snapshot,
		cache.KeyCompanies: companies,
		cache.KeyProjects:  projects,
	})
	if s.index != nil {
		if err := s.index.Rebuild(projects); err != nil {
			s.logger.Printf("[refresh] search index rebuild failed: %v", err)
		}
	}

	s.logger.Printf("[refresh] completed in %v (snapshot %s)", s.opts.Now().Sub(started), snapshot.ID)
	return &Result{
		Snapshot:  snapshot,
		Companies: companies,
		Projects:  projects,
		Parsed:    parsed,
	}, nil
}

func (s *Service) persist(ctx context.Context, started time.Time, parsed *parsing.Result,
	companies []types.EnrichedCompany, projects []types.EnrichedProject) (*db.Snapshot, error) {
	if s.store == nil {
		return nil, &PersistenceError{Message: "no snapshot store configured"}
	}

	file, err := json.Marshal(types.SnapshotPayload{
		Success:           true,
		Companies:         parsed.Companies,
		Projects:          projects,
		EnrichedCompanies: companies,
		Languages:         parsed.Languages,
	})
	if err != nil {
		return nil, &PersistenceError{Message: "failed to encode snapshot", Cause: err}
	}

	snapshot, err := s.store.SaveSnapshot(ctx, db.SnapshotFilename(started), file)
	if err != nil {
		return nil, &PersistenceError{Message: "snapshot write rejected", Cause: err}
	}
	if snapshot == nil || snapshot.ID == uuid.Nil || len(snapshot.File) == 0 {
		return nil, &PersistenceError{Message: "store returned no identifier"}
	}
	return snapshot, nil
}

// cached builds a Result from the cache when it is fresh.
func (s *Service) cached() (*Result, bool) {
	if !s.cache.IsFresh(s.opts.MaxAge) {
		return nil, false
	}
	snapshot, _ := s.cacheValue(cache.KeyJSONData).(*db.Snapshot)
	companies, _ := s.cacheValue(cache.KeyCompanies).([]types.EnrichedCompany)
	projects, _ := s.cacheValue(cache.KeyProjects).([]types.EnrichedProject)
	if snapshot == nil {
		return nil, false
	}
	return &Result{
		FromCache: true,
		Snapshot:  snapshot,
		Companies: companies,
		Projects:  projects,
	}, true
}

func (s *Service) cacheValue(key string) any {
	value, _ := s.cache.Get(key)
	return value
}

// ensureFresh runs Refresh for a read; failures only degrade the read.
func (s *Service) ensureFresh(ctx context.Context) {
	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Printf("[refresh] serving stale or empty data: %v", err)
	}
}

// FetchCompany returns the enriched organization whose login matches, case-insensitively.
func (s *Service) FetchCompany(ctx context.Context, login string) (*types.EnrichedCompany, bool) {
	for _, company := range s.FetchAllCompanies(ctx) {
		if strings.EqualFold(company.Login, login) {
			return &company, true
		}
	}
	return nil, false
}

// FetchAllCompanies returns every enriched organization currently cached.
func (s *Service) FetchAllCompanies(ctx context.Context) []types.EnrichedCompany {
	s.ensureFresh(ctx)
	companies, _ := s.cacheValue(cache.KeyCompanies).([]types.EnrichedCompany)
	return companies
}

// FetchAllRepositories returns every enriched repository currently cached.
func (s *Service) FetchAllRepositories(ctx context.Context) []types.EnrichedProject {
	s.ensureFresh(ctx)
	projects, _ := s.cacheValue(cache.KeyProjects).([]types.EnrichedProject)
	return projects
}

// ErrSearchUnavailable is returned when the service has no search index.
var ErrSearchUnavailable = errors.New("search index not configured")

// SearchRepositories runs a full-text query over the cached repositories.
func (s *Service) SearchRepositories(ctx context.Context, query string, limit int) ([]search.Hit, error) {
	if s.index == nil {
		return nil, ErrSearchUnavailable
	}
	s.ensureFresh(ctx)
	return s.index.Search(query, limit)
}

// LatestSnapshot returns the snapshot backing the cached data, if any.
func (s *Service) LatestSnapshot(ctx context.Context) *db.Snapshot {
	s.ensureFresh(ctx)
	snapshot, _ := s.cacheValue(cache.KeyJSONData).(*db.Snapshot)
	return snapshot
}

// Status reports the cache state without triggering a refresh.
func (s *Service) Status() Status {
	companies, _ := s.cacheValue(cache.KeyCompanies).([]types.EnrichedCompany)
	projects, _ := s.cacheValue(cache.KeyProjects).([]types.EnrichedProject)
	status := Status{
		Fresh:       s.cache.IsFresh(s.opts.MaxAge),
		LastUpdated: s.cache.LastUpdated(),
		Companies:   len(companies),
		Projects:    len(projects),
	}
	if snapshot, ok := s.cacheValue(cache.KeyJSONData).(*db.Snapshot); ok && snapshot != nil {
		status.SnapshotID = snapshot.ID.String()
	}
	return status
}

func (s *Service) emit(step, message string) {
	if s.opts.OnProgress != nil {
		s.opts.OnProgress(ProgressEvent{Step: step, Message: message})
	}
}
