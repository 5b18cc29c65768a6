package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"alize_backend/internal/cvtext"
	"alize_backend/internal/logger"
	"alize_backend/internal/models"
	"alize_backend/internal/providers"
	"alize_backend/internal/repositories"
	"alize_backend/internal/services/dto"
)

const (
	// maxBuiltQueries caps query-plan generation; maxSearchQueries caps
	// how many of them actually hit the providers per cycle.
	maxBuiltQueries  = 5
	maxSearchQueries = 3

	topKeywordCount = 15
	defaultLocation = "France"
)

type SearchService interface {
	// SearchJobsForUser runs the whole per-user pipeline: query plan,
	// provider fan-out, ingestion, ledger attachment, run recording.
	// Skipped (without touching the providers) when neither the
	// preferences nor the CV changed since the last recorded run,
	// unless forced.
	SearchJobsForUser(ctx context.Context, userID string, pref *models.UserPreference, force bool) (*dto.SearchSummary, error)
	// RunNow is the synchronous user-facing trigger: forced search plus
	// the resulting scored digest selection.
	RunNow(ctx context.Context, userID string) (*dto.SearchSummary, error)
}

type searchService struct {
	prefRepo      repositories.PreferenceRepository
	cvRepo        repositories.CVRepository
	searchRunRepo repositories.SearchRunRepository
	userJobRepo   repositories.UserJobRepository
	ingest        IngestService
	matching      MatchingService
	sources       []providers.Provider
}

func NewSearchService(
	prefRepo repositories.PreferenceRepository,
	cvRepo repositories.CVRepository,
	searchRunRepo repositories.SearchRunRepository,
	userJobRepo repositories.UserJobRepository,
	ingest IngestService,
	matching MatchingService,
	sources []providers.Provider,
) SearchService {
	return &searchService{
		prefRepo:      prefRepo,
		cvRepo:        cvRepo,
		searchRunRepo: searchRunRepo,
		userJobRepo:   userJobRepo,
		ingest:        ingest,
		matching:      matching,
		sources:       sources,
	}
}

// BuildQueries assembles up to five deduplicated search queries from
// the inferred roles, the user's must-keywords and the CV's top
// keywords, each suffixed with the location when present.
func BuildQueries(roles, mustKeywords, topKeywords []string, location string) []string {
	var queries []string
	baseRole := ""
	if len(roles) > 0 {
		baseRole = roles[0]
	}
	if baseRole != "" {
		queries = append(queries, baseRole)
	}
	if len(mustKeywords) > 0 {
		musts := mustKeywords
		if len(musts) > 2 {
			musts = musts[:2]
		}
		queries = append(queries, strings.TrimSpace(baseRole+" "+strings.Join(musts, " ")))
	}
	if len(queries) == 0 && len(topKeywords) > 0 {
		top := topKeywords
		if len(top) > 2 {
			top = top[:2]
		}
		queries = append(queries, strings.Join(top, " "))
	}
	for i, kw := range topKeywords {
		if i == 3 {
			break
		}
		if baseRole != "" {
			queries = append(queries, baseRole+" "+kw)
		} else {
			queries = append(queries, kw)
		}
	}

	if location != "" && !cvtext.IsPlaceholder(location) {
		for i, q := range queries {
			queries[i] = q + " " + location
		}
	}

	seen := make(map[string]struct{}, len(queries))
	unique := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" || strings.Contains(q, "string") {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		unique = append(unique, q)
		if len(unique) == maxBuiltQueries {
			break
		}
	}
	return unique
}

// cvProfile is the per-run ephemeral extraction result; keywords are
// never persisted.
type cvProfile struct {
	keywords    []string
	topKeywords []string
	roles       []string
	updatedAt   *time.Time
}

func (s *searchService) loadProfile(userID string, pref *models.UserPreference) (*cvProfile, error) {
	p := &cvProfile{}
	cv, err := s.cvRepo.FindLatest(userID)
	if err != nil {
		if !errors.Is(err, repositories.ErrCVNotFound) {
			return nil, err
		}
		cv = nil
	}

	text := ""
	if cv != nil {
		text = cv.Text
		t := cv.CreatedAt
		p.updatedAt = &t
	}
	cleaned := cvtext.Clean(text)
	p.keywords = cvtext.ExtractKeywords(cleaned)
	p.roles = cvtext.InferRoles(cleaned, prefRoleRaw(pref))

	// Tech skills first, then the most frequent free tokens.
	skills := cvtext.ExtractTechSkills(cleaned)
	top := make([]string, 0, topKeywordCount)
	seen := make(map[string]struct{})
	for _, sk := range skills {
		if len(top) == topKeywordCount {
			break
		}
		top = append(top, sk)
		seen[sk] = struct{}{}
	}
	for _, kw := range p.keywords {
		if len(top) == topKeywordCount {
			break
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		top = append(top, kw)
	}
	p.topKeywords = top
	return p, nil
}

func prefRoleRaw(pref *models.UserPreference) string {
	if pref == nil {
		return ""
	}
	return pref.Role
}

// unchangedSince reports whether both the preferences and the CV
// predate the last recorded run.
func unchangedSince(lastRun *models.JobSearchRun, pref *models.UserPreference, profile *cvProfile) bool {
	if lastRun == nil || pref == nil {
		return false
	}
	prefUpdated := pref.UpdatedAt
	if prefUpdated.IsZero() {
		prefUpdated = pref.CreatedAt
	}
	if prefUpdated.After(lastRun.CreatedAt) {
		return false
	}
	if profile.updatedAt != nil && profile.updatedAt.After(lastRun.CreatedAt) {
		return false
	}
	return true
}

func (s *searchService) SearchJobsForUser(ctx context.Context, userID string, pref *models.UserPreference, force bool) (*dto.SearchSummary, error) {
	summary := &dto.SearchSummary{BySource: map[string]int{}}

	profile, err := s.loadProfile(userID, pref)
	if err != nil {
		return nil, err
	}
	lastRun, err := s.searchRunRepo.FindLatest(userID)
	if err != nil {
		return nil, err
	}
	if !force && unchangedSince(lastRun, pref, profile) {
		summary.SkipCause = "profile unchanged since last run"
		return summary, s.finishRun(userID, summary)
	}

	location := prefLocationRaw(pref)
	queries := BuildQueries(profile.roles, splitKeywords(prefMust(pref)), profile.topKeywords, location)
	if len(queries) > maxSearchQueries {
		queries = queries[:maxSearchQueries]
	}
	summary.Ran = true
	summary.Queries = queries

	searchLoc := location
	if searchLoc == "" {
		searchLoc = defaultLocation
	}

	var collected []*models.JobListing
	seenJobs := make(map[string]struct{})
	for _, query := range queries {
		for _, src := range s.sources {
			raws, err := src.Search(ctx, query, searchLoc)
			if err != nil {
				logger.Warn("provider search failed", "provider", src.Name(), "query", query, "error", err)
				continue
			}
			summary.Fetched += len(raws)
			jobs, inserted, err := s.ingest.IngestBatch(raws)
			if err != nil {
				return summary, err
			}
			summary.Inserted += inserted
			for _, job := range jobs {
				if _, dup := seenJobs[job.ID]; dup {
					continue
				}
				seenJobs[job.ID] = struct{}{}
				collected = append(collected, job)
				summary.BySource[job.Source]++
			}
		}
	}

	attached, err := s.matching.AttachJobsToUser(userID, pref, profile.keywords, collected)
	if err != nil {
		return summary, err
	}
	summary.Attached = attached

	return summary, s.finishRun(userID, summary)
}

// finishRun records the cycle, prunes old runs and advances
// last_search_at. The search timestamp moves even on a skipped cycle,
// so the cooldown gate never spins on an unchanged profile.
func (s *searchService) finishRun(userID string, summary *dto.SearchSummary) error {
	triedJSON, _ := json.Marshal(summary.Queries)
	sourcesJSON, _ := json.Marshal(summary.BySource)
	run := &models.JobSearchRun{
		UserID:       userID,
		Inserted:     summary.Inserted,
		TriedQueries: string(triedJSON),
		Sources:      string(sourcesJSON),
	}
	if err := s.searchRunRepo.Create(run); err != nil {
		return err
	}
	if err := s.searchRunRepo.Prune(userID); err != nil {
		logger.Warn("failed to prune search runs", "user_id", userID, "error", err)
	}
	return s.prefRepo.MarkSearched(userID, time.Now())
}

func prefLocationRaw(pref *models.UserPreference) string {
	if pref == nil || cvtext.IsPlaceholder(pref.Location) {
		return ""
	}
	return strings.TrimSpace(pref.Location)
}

func (s *searchService) RunNow(ctx context.Context, userID string) (*dto.SearchSummary, error) {
	pref, err := s.prefRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}
	summary, err := s.SearchJobsForUser(ctx, userID, pref, true)
	if err != nil {
		return nil, err
	}

	profile, err := s.loadProfile(userID, pref)
	if err != nil {
		return summary, err
	}
	rows, err := s.userJobRepo.TopUnnotified(userID, pref.MaxJobs)
	if err != nil {
		return summary, err
	}
	for i := range rows {
		row := &rows[i]
		if row.Job == nil {
			continue
		}
		summary.Digest = append(summary.Digest, s.matching.ToScoredJob(row.Job, row, pref, profile.keywords))
	}
	return summary, nil
}
