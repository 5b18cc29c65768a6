package services

import (
	"strings"
	"time"

	"alize_backend/internal/cvtext"
	"alize_backend/internal/models"
	"alize_backend/internal/repositories"
	"alize_backend/internal/services/dto"
)

// Scoring weights. The base is lower when the user stated explicit
// preferences, so the score has to be earned from real signals; with no
// preferences at all the base is higher so CV-only matches are not
// crushed.
const (
	baseWithPrefs    = 30
	baseWithoutPrefs = 50

	roleExactBonus   = 20
	rolePartialBonus = 8
	roleMissPenalty  = 5

	locationBonus = 10
	remoteBonus   = 8

	mustHighBonus = 15 // >= 80% of must-keywords found
	mustMidBonus  = 10 // >= 50%
	mustLowBonus  = 5  // at least one
	mustPenalty   = 3  // none found

	contractBonus = 5

	cvHighBonus = 10 // >= 50% of CV keywords in listing
	cvMidBonus  = 6  // >= 20%
	cvLowBonus  = 3  // at least one

	descriptionBonus       = 3
	descriptionShortCutoff = 80
	descriptionLongCutoff  = 600

	maxMatchReasons = 4
	newBadgeDays    = 3
)

var remoteMarkers = []string{"remote", "teletravail", "hybride", "hybrid", "distanciel"}

type MatchingService interface {
	// Score rates a listing on [0,100]; the bool is false when a hard
	// filter excludes the job outright.
	Score(job *models.JobListing, pref *models.UserPreference, cvKeywords []string) (int, bool)
	RoundScore(score int) int
	MatchReasons(job *models.JobListing, pref *models.UserPreference, cvKeywords []string) []string
	AttachJobsToUser(userID string, pref *models.UserPreference, cvKeywords []string, jobs []*models.JobListing) (int, error)
	ToScoredJob(job *models.JobListing, row *models.UserJob, pref *models.UserPreference, cvKeywords []string) dto.ScoredJob
}

type matchingService struct {
	userJobRepo repositories.UserJobRepository
}

func NewMatchingService(userJobRepo repositories.UserJobRepository) MatchingService {
	return &matchingService{userJobRepo: userJobRepo}
}

// normText lowercases and accent-strips, so "Développeur" matches
// "developpeur" and vice versa.
func normText(s string) string {
	return cvtext.StripAccents(strings.ToLower(s))
}

func jobText(job *models.JobListing) string {
	return normText(job.Title + " " + job.Company + " " + job.Location + " " + job.Description)
}

// splitKeywords turns a comma-separated preference field into clean
// lowercase accent-stripped terms, dropping empties and placeholders.
func splitKeywords(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || cvtext.IsPlaceholder(part) {
			continue
		}
		out = append(out, normText(part))
	}
	return out
}

func prefRole(pref *models.UserPreference) string {
	if pref == nil || cvtext.IsPlaceholder(pref.Role) {
		return ""
	}
	return normText(strings.TrimSpace(pref.Role))
}

func prefLocation(pref *models.UserPreference) string {
	if pref == nil || cvtext.IsPlaceholder(pref.Location) {
		return ""
	}
	return normText(strings.TrimSpace(pref.Location))
}

func prefMust(pref *models.UserPreference) string {
	if pref == nil {
		return ""
	}
	return pref.MustKeywords
}

func prefAvoid(pref *models.UserPreference) string {
	if pref == nil {
		return ""
	}
	return pref.AvoidKeywords
}

func hasRemoteMarker(normed string) bool {
	for _, m := range remoteMarkers {
		if strings.Contains(normed, m) {
			return true
		}
	}
	return false
}

// wordOverlap reports whether any word of role longer than two runes
// appears in title. Both arguments are already normalized.
func wordOverlap(title, role string) bool {
	for _, w := range strings.Fields(role) {
		if len([]rune(w)) > 2 && strings.Contains(title, w) {
			return true
		}
	}
	return false
}

func fraction(found, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(found) / float64(total)
}

func (s *matchingService) Score(job *models.JobListing, pref *models.UserPreference, cvKeywords []string) (int, bool) {
	text := jobText(job)
	title := normText(job.Title)

	role := prefRole(pref)
	loc := prefLocation(pref)
	must := splitKeywords(prefMust(pref))

	// Hard filters first: avoid-keyword hit anywhere in the listing
	// text, or a known salary below the user's floor. Unknown salary
	// never excludes.
	for _, k := range splitKeywords(prefAvoid(pref)) {
		if strings.Contains(text, k) {
			return 0, false
		}
	}
	if pref != nil && pref.SalaryMin != nil && *pref.SalaryMin > 0 &&
		job.SalaryMin != nil && *job.SalaryMin < *pref.SalaryMin {
		return 0, false
	}

	score := baseWithoutPrefs
	if role != "" || loc != "" || len(must) > 0 {
		score = baseWithPrefs
	}

	if role != "" {
		switch {
		case strings.Contains(title, role):
			score += roleExactBonus
		case wordOverlap(title, role):
			score += rolePartialBonus
		default:
			score -= roleMissPenalty
		}
	}

	if loc != "" {
		switch {
		case strings.Contains(normText(job.Location), loc) || strings.Contains(text, loc):
			score += locationBonus
		case hasRemoteMarker(loc) && hasRemoteMarker(text):
			score += remoteBonus
		}
	}

	if len(must) > 0 {
		found := 0
		for _, k := range must {
			if strings.Contains(text, k) {
				found++
			}
		}
		switch frac := fraction(found, len(must)); {
		case frac >= 0.8:
			score += mustHighBonus
		case frac >= 0.5:
			score += mustMidBonus
		case found > 0:
			score += mustLowBonus
		default:
			score -= mustPenalty
		}
	}

	if pref != nil && pref.ContractType != "" && !cvtext.IsPlaceholder(pref.ContractType) {
		for _, term := range cvtext.ContractTerms(pref.ContractType) {
			if strings.Contains(text, normText(term)) {
				score += contractBonus
				break
			}
		}
	}

	// CV overlap only ever adds: a weak overlap means a career change,
	// not a bad match.
	if len(cvKeywords) > 0 {
		found := 0
		for _, k := range cvKeywords {
			if strings.Contains(text, normText(k)) {
				found++
			}
		}
		switch frac := fraction(found, len(cvKeywords)); {
		case frac >= 0.5:
			score += cvHighBonus
		case frac >= 0.2:
			score += cvMidBonus
		case found > 0:
			score += cvLowBonus
		}
	}

	switch descLen := len([]rune(job.Description)); {
	case descLen >= descriptionLongCutoff:
		score += descriptionBonus
	case descLen < descriptionShortCutoff:
		score -= descriptionBonus
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, true
}

// RoundScore maps [0,100] onto the 0..10 badge scale, monotonically.
func (s *matchingService) RoundScore(score int) int {
	v := (score + 5) / 10
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// MatchReasons re-derives up to four human-readable reasons with the
// same substring logic as Score, so a reason is never shown for a
// signal the scorer did not apply.
func (s *matchingService) MatchReasons(job *models.JobListing, pref *models.UserPreference, cvKeywords []string) []string {
	text := jobText(job)
	title := normText(job.Title)

	var reasons []string
	add := func(r string) {
		if len(reasons) < maxMatchReasons {
			reasons = append(reasons, r)
		}
	}

	if role := prefRole(pref); role != "" && (strings.Contains(title, role) || wordOverlap(title, role)) {
		add("Poste aligné avec le rôle recherché : " + strings.TrimSpace(pref.Role))
	}
	if loc := prefLocation(pref); loc != "" {
		if strings.Contains(normText(job.Location), loc) || strings.Contains(text, loc) {
			add("Localisation correspondante : " + strings.TrimSpace(pref.Location))
		} else if hasRemoteMarker(loc) && hasRemoteMarker(text) {
			add("Poste compatible télétravail")
		}
	}

	var hits []string
	for _, k := range splitKeywords(prefMust(pref)) {
		if strings.Contains(text, k) {
			hits = append(hits, k)
			if len(hits) == 3 {
				break
			}
		}
	}
	if len(hits) > 0 {
		add("Mots-clés retrouvés : " + strings.Join(hits, ", "))
	}

	var cvHits []string
	for _, k := range cvKeywords {
		if n := normText(k); strings.Contains(text, n) {
			cvHits = append(cvHits, n)
			if len(cvHits) == 3 {
				break
			}
		}
	}
	if len(cvHits) > 0 {
		add("Compétences de votre CV présentes : " + strings.Join(cvHits, ", "))
	}
	return reasons
}

// AttachJobsToUser scores each listing and creates a ledger row for the
// non-excluded ones. Existing (user,job) pairs are left untouched, so
// re-matching is a no-op. Returns the number of rows actually created.
func (s *matchingService) AttachJobsToUser(userID string, pref *models.UserPreference, cvKeywords []string, jobs []*models.JobListing) (int, error) {
	attached := 0
	for _, job := range jobs {
		score, ok := s.Score(job, pref, cvKeywords)
		if !ok {
			continue
		}
		created, err := s.userJobRepo.AttachIfAbsent(&models.UserJob{
			UserID: userID,
			JobID:  job.ID,
			Score:  s.RoundScore(score),
			Status: models.JobStatusNew,
		})
		if err != nil {
			return attached, err
		}
		if created {
			attached++
		}
	}
	return attached, nil
}

func (s *matchingService) ToScoredJob(job *models.JobListing, row *models.UserJob, pref *models.UserPreference, cvKeywords []string) dto.ScoredJob {
	out := dto.ScoredJob{
		JobID:        job.ID,
		Source:       job.Source,
		Title:        job.Title,
		Company:      job.Company,
		Location:     job.Location,
		URL:          job.URL,
		Description:  job.Description,
		SalaryMin:    job.SalaryMin,
		IsNew:        time.Since(job.CreatedAt) <= newBadgeDays*24*time.Hour,
		IsRemote:     hasRemoteMarker(jobText(job)),
		MatchReasons: s.MatchReasons(job, pref, cvKeywords),
		CreatedAt:    job.CreatedAt,
	}
	if row != nil {
		out.Score = row.Score
		out.Status = string(row.Status)
		out.NotifiedAt = row.NotifiedAt
	}
	return out
}
