package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/readme-aggregator/internal/cache"
	"github.com/jonathan/readme-aggregator/internal/db"
	"github.com/jonathan/readme-aggregator/internal/github"
	"github.com/jonathan/readme-aggregator/internal/parsing"
	"github.com/jonathan/readme-aggregator/internal/search"
	"github.com/jonathan/readme-aggregator/internal/types"
)

func loadFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../parsing/testdata/readme.md")
	require.NoError(t, err)
	return string(data)
}

type fakeFetcher struct {
	doc   string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (f *fakeFetcher) Document(ctx context.Context, _ string) (string, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.doc, f.err
}

type fakeEnricher struct {
	companyErr error
	projectErr error
}

func (e *fakeEnricher) EnrichCompanies(_ context.Context, refs []types.CompanyRef) ([]types.EnrichedCompany, error) {
	if e.companyErr != nil {
		return nil, e.companyErr
	}
	out := make([]types.EnrichedCompany, 0, len(refs))
	for _, ref := range refs {
		out = append(out, types.EnrichedCompany{Login: ref.Name, Name: ref.Name + " Inc"})
	}
	return out, nil
}

func (e *fakeEnricher) EnrichProjects(_ context.Context, refs []types.ProjectRef) ([]types.EnrichedProject, error) {
	if e.projectErr != nil {
		return nil, e.projectErr
	}
	out := make([]types.EnrichedProject, 0, len(refs))
	for _, ref := range refs {
		out = append(out, types.EnrichedProject{
			NameWithOwner:     ref.Name,
			ReadmeDescription: ref.Description,
			StargazerCount:    10,
		})
	}
	return out, nil
}

type fakeStore struct {
	mu        sync.Mutex
	saved     []db.Snapshot
	err       error
	omitID    bool
	returnNil bool
}

func (s *fakeStore) SaveSnapshot(_ context.Context, filename string, file []byte) (*db.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.returnNil {
		return nil, nil
	}
	snapshot := db.Snapshot{ID: uuid.New(), Filename: filename, File: file, CreatedAt: time.Now()}
	if s.omitID {
		snapshot.ID = uuid.Nil
	}
	s.saved = append(s.saved, snapshot)
	return &snapshot, nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	service  *Service
	fetcher  *fakeFetcher
	enricher *fakeEnricher
	store    *fakeStore
	cache    *cache.Store
	clock    *testClock
}

func newHarness(t *testing.T, doc string) *harness {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	h := &harness{
		fetcher:  &fakeFetcher{doc: doc},
		enricher: &fakeEnricher{},
		store:    &fakeStore{},
		cache:    cache.New(cache.WithClock(clock.Now)),
		clock:    clock,
	}
	index, err := search.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	h.service = New(Deps{
		Fetcher:  h.fetcher,
		Enricher: h.enricher,
		Store:    h.store,
		Cache:    h.cache,
		Index:    index,
		Logger:   log.New(io.Discard, "", 0),
	}, Options{MaxAge: time.Hour, Now: clock.Now})
	return h
}

func TestRefresh_EndToEnd(t *testing.T) {
	h := newHarness(t, loadFixture(t))

	var steps []string
	h.service.opts.OnProgress = func(e ProgressEvent) { steps = append(steps, e.Step) }

	result, err := h.service.Refresh(context.Background())
	require.NoError(t, err)

	assert.False(t, result.FromCache)
	require.NotNil(t, result.Parsed)
	assert.Equal(t, []string{"Go", "JavaScript"}, result.Parsed.Languages)
	assert.Len(t, result.Companies, 3)
	assert.Len(t, result.Projects, 2)
	assert.Equal(t, "acme/widget", result.Projects[0].NameWithOwner)

	require.Equal(t, 1, h.store.count())
	saved := h.store.saved[0]
	assert.Equal(t, db.SnapshotFilename(h.clock.Now()), saved.Filename)

	var payload types.SnapshotPayload
	require.NoError(t, json.Unmarshal(saved.File, &payload))
	assert.True(t, payload.Success)
	assert.Equal(t, []string{"Go", "JavaScript"}, payload.Languages)
	assert.Len(t, payload.EnrichedCompanies, 3)

	assert.True(t, h.cache.IsFresh(time.Hour))
	assert.Equal(t, []string{
		StepCheckCache, StepFetchDocument, StepParse, StepEnrichCompanies,
		StepEnrichProjects, StepPersist, StepRepopulateCache,
	}, steps)
}

func TestRefresh_FreshCacheShortCircuits(t *testing.T) {
	h := newHarness(t, loadFixture(t))

	_, err := h.service.Refresh(context.Background())
	require.NoError(t, err)

	h.clock.Advance(30 * time.Minute)
	result, err := h.service.Refresh(context.Background())
	require.NoError(t, err)

	assert.True(t, result.FromCache)
	assert.Nil(t, result.Parsed)
	assert.Equal(t, int32(1), h.fetcher.calls.Load())
	assert.Equal(t, 1, h.store.count())
}

func TestRefresh_StaleCacheRunsAgain(t *testing.T) {
	h := newHarness(t, loadFixture(t))

	_, err := h.service.Refresh(context.Background())
	require.NoError(t, err)

	h.clock.Advance(time.Hour + time.Second)
	result, err := h.service.Refresh(context.Background())
	require.NoError(t, err)

	assert.False(t, result.FromCache)
	assert.Equal(t, int32(2), h.fetcher.calls.Load())
	assert.Equal(t, 2, h.store.count())
}

func TestRefresh_ForceIgnoresFreshness(t *testing.T) {
	h := newHarness(t, loadFixture(t))

	_, err := h.service.Refresh(context.Background())
	require.NoError(t, err)
	_, err = h.service.ForceRefresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), h.fetcher.calls.Load())
}

func TestRefresh_StructureErrorLeavesCacheUntouched(t *testing.T) {
	h := newHarness(t, "# Nothing here\n")

	_, err := h.service.Refresh(context.Background())

	var structErr *parsing.StructureError
	require.ErrorAs(t, err, &structErr)
	assert.False(t, h.cache.IsFresh(time.Hour))
	_, ok := h.cache.Get(cache.KeyProjects)
	assert.False(t, ok)
	assert.Zero(t, h.store.count())
}

func TestRefresh_FetchFailure(t *testing.T) {
	h := newHarness(t, "")
	h.fetcher.err = errors.New("connection refused")

	_, err := h.service.Refresh(context.Background())

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, DefaultReadmeURL, fetchErr.URL)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRefresh_EnrichmentFailureIsTerminal(t *testing.T) {
	h := newHarness(t, loadFixture(t))
	h.enricher.projectErr = &github.EnrichmentError{Kind: "projects", Requested: 2}

	_, err := h.service.Refresh(context.Background())

	var enrichErr *github.EnrichmentError
	require.ErrorAs(t, err, &enrichErr)
	assert.Zero(t, h.store.count())
	assert.False(t, h.cache.IsFresh(time.Hour))
}

func TestRefresh_PersistenceFailures(t *testing.T) {
	tests := []struct {
		name  string
		store *fakeStore
		want  string
	}{
		{"write rejected", &fakeStore{err: errors.New("disk full")}, "snapshot write rejected"},
		{"nil id", &fakeStore{omitID: true}, "no identifier"},
		{"nil record", &fakeStore{returnNil: true}, "no identifier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, loadFixture(t))
			h.service.store = tt.store

			_, err := h.service.Refresh(context.Background())

			var persistErr *PersistenceError
			require.ErrorAs(t, err, &persistErr)
			assert.Contains(t, err.Error(), tt.want)
			assert.False(t, h.cache.IsFresh(time.Hour))
		})
	}
}

func TestRefresh_FailureKeepsStaleData(t *testing.T) {
	h := newHarness(t, loadFixture(t))

	_, err := h.service.Refresh(context.Background())
	require.NoError(t, err)

	h.clock.Advance(2 * time.Hour)
	h.fetcher.err = errors.New("upstream down")

	companies := h.service.FetchAllCompanies(context.Background())
	assert.Len(t, companies, 3, "stale data is still served")
	assert.False(t, h.service.Status().Fresh)
}

func TestRefresh_ConcurrentCallersShareOneRun(t *testing.T) {
	h := newHarness(t, loadFixture(t))
	h.fetcher.delay = 50 * time.Millisecond

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.service.Refresh(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), h.fetcher.calls.Load())
	assert.Equal(t, 1, h.store.count())
}

func TestRefresh_CallerCancellationDoesNotAbortRun(t *testing.T) {
	h := newHarness(t, loadFixture(t))
	h.fetcher.delay = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.service.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, h.cache.IsFresh(time.Hour))
}

func TestFetchCompany_CaseInsensitive(t *testing.T) {
	h := newHarness(t, loadFixture(t))

	company, ok := h.service.FetchCompany(context.Background(), "ACME")
	require.True(t, ok)
	assert.Equal(t, "acme", company.Login)

	_, ok = h.service.FetchCompany(context.Background(), "missing")
	assert.False(t, ok)
}

func TestFetchAllRepositories(t *testing.T) {
	h := newHarness(t, loadFixture(t))

	projects := h.service.FetchAllRepositories(context.Background())
	require.Len(t, projects, 2)
	assert.Equal(t, "jsorg/bundler", projects[1].NameWithOwner)
	assert.Equal(t, "Fast bundler", projects[1].ReadmeDescription)
}

func TestSearchRepositories(t *testing.T) {
	h := newHarness(t, loadFixture(t))

	hits, err := h.service.SearchRepositories(context.Background(), "bundler", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "jsorg/bundler", hits[0].Project.NameWithOwner)
}

func TestSearchRepositories_NoIndex(t *testing.T) {
	service := New(Deps{Logger: log.New(io.Discard, "", 0)}, Options{})
	_, err := service.SearchRepositories(context.Background(), "x", 1)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
}

func TestLatestSnapshotAndStatus(t *testing.T) {
	h := newHarness(t, loadFixture(t))

	before := h.service.Status()
	assert.False(t, before.Fresh)
	assert.Empty(t, before.SnapshotID)

	snapshot := h.service.LatestSnapshot(context.Background())
	require.NotNil(t, snapshot)

	status := h.service.Status()
	assert.True(t, status.Fresh)
	assert.Equal(t, snapshot.ID.String(), status.SnapshotID)
	assert.Equal(t, 3, status.Companies)
	assert.Equal(t, 2, status.Projects)
}

func TestPopulate_LogsFailure(t *testing.T) {
	h := newHarness(t, "")
	h.fetcher.err = errors.New("boom")

	assert.NotPanics(t, func() { h.service.Populate(context.Background()) })
	assert.Equal(t, int32(1), h.fetcher.calls.Load())
}
