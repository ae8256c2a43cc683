package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/readme-aggregator/internal/search"
	"github.com/jonathan/readme-aggregator/internal/types"
)

// SnapshotResponse is a stored snapshot with its payload inlined as JSON.
type SnapshotResponse struct {
	ID        string          `json:"id"`
	Filename  string          `json:"filename"`
	CreatedAt time.Time       `json:"created_at"`
	File      json.RawMessage `json:"file"`
}

// RefreshResponse reports the outcome of a forced refresh.
type RefreshResponse struct {
	SnapshotID string `json:"snapshot_id"`
	Companies  int    `json:"companies"`
	Projects   int    `json:"projects"`
	Languages  int    `json:"languages"`
}

// parseQueryInt parses an integer query parameter with default and max values
func parseQueryInt(r *http.Request, key string, defaultValue, maxValue int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		return defaultValue
	}
	if maxValue > 0 && val > maxValue {
		return maxValue
	}
	return val
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus reports cache freshness without triggering a refresh
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.aggregator.Status())
}

// handleListCompanies lists every enriched organization
func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	companies := s.aggregator.FetchAllCompanies(r.Context())
	if companies == nil {
		companies = []types.EnrichedCompany{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"companies": companies,
		"total":     len(companies),
	})
}

// handleGetCompany retrieves one organization by login
func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	login := strings.TrimSpace(r.PathValue("login"))
	if login == "" {
		s.errorResponse(w, http.StatusBadRequest, "Company login is required")
		return
	}

	company, ok := s.aggregator.FetchCompany(r.Context(), login)
	if !ok {
		s.errorResponse(w, http.StatusNotFound, "Company not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, company)
}

// handleListRepositories lists enriched repositories, optionally filtered by language
func (s *Server) handleListRepositories(w http.ResponseWriter, r *http.Request) {
	projects := s.aggregator.FetchAllRepositories(r.Context())

	if language := r.URL.Query().Get("language"); language != "" {
		filtered := make([]types.EnrichedProject, 0, len(projects))
		for _, project := range projects {
			if hasLanguage(project, language) {
				filtered = append(filtered, project)
			}
		}
		projects = filtered
	}
	if projects == nil {
		projects = []types.EnrichedProject{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"repositories": projects,
		"total":        len(projects),
	})
}

func hasLanguage(project types.EnrichedProject, language string) bool {
	for _, l := range project.Languages {
		if strings.EqualFold(l.Name, language) {
			return true
		}
	}
	return false
}

// handleSearchRepositories runs a full-text query over repositories
func (s *Server) handleSearchRepositories(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := parseQueryInt(r, "limit", search.DefaultLimit, search.MaxLimit)

	hits, err := s.aggregator.SearchRepositories(r.Context(), query, limit)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"query": query,
		"hits":  hits,
		"total": len(hits),
	})
}

// handleLatestSnapshot returns the snapshot backing the served data
func (s *Server) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot := s.aggregator.LatestSnapshot(r.Context())
	if snapshot == nil {
		s.errorResponse(w, http.StatusNotFound, "No snapshot available")
		return
	}

	s.jsonResponse(w, http.StatusOK, SnapshotResponse{
		ID:        snapshot.ID.String(),
		Filename:  snapshot.Filename,
		CreatedAt: snapshot.CreatedAt,
		File:      json.RawMessage(snapshot.File),
	})
}

// handleListSnapshots lists stored snapshots, newest first
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := parseQueryInt(r, "limit", 20, 100)
	offset := parseQueryInt(r, "offset", 0, 0)

	snapshots, err := s.snapshots.ListSnapshots(r.Context(), limit, offset)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"snapshots": snapshots,
		"limit":     limit,
		"offset":    offset,
	})
}

// handleRefresh forces a pipeline run and reports its outcome
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	result, err := s.aggregator.ForceRefresh(r.Context())
	if err != nil {
		s.logger.Printf("[server] forced refresh failed: %v", err)
		s.errorResponse(w, HTTPStatus(err), "Refresh failed: "+err.Error())
		return
	}

	response := RefreshResponse{
		Companies: len(result.Companies),
		Projects:  len(result.Projects),
	}
	if result.Snapshot != nil {
		response.SnapshotID = result.Snapshot.ID.String()
	}
	if result.Parsed != nil {
		response.Languages = len(result.Parsed.Languages)
	}

	s.jsonResponse(w, http.StatusOK, response)
}
