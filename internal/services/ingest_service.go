package services

import (
	"errors"
	"net/url"
	"strings"
	"unicode"

	"alize_backend/internal/cvtext"
	"alize_backend/internal/logger"
	"alize_backend/internal/models"
	"alize_backend/internal/providers"
	"alize_backend/internal/repositories"
)

// companyPrefixLen bounds the fuzzy-duplicate candidate window: only
// rows whose normalized company shares this prefix are compared.
const companyPrefixLen = 20

type IngestService interface {
	// Ingest stores a raw listing unless it already exists. Returns the
	// canonical row and whether it was created by this call.
	Ingest(raw providers.Listing) (*models.JobListing, bool, error)
	IngestBatch(raws []providers.Listing) ([]*models.JobListing, int, error)
}

type ingestService struct {
	jobRepo repositories.JobRepository
}

func NewIngestService(jobRepo repositories.JobRepository) IngestService {
	return &ingestService{jobRepo: jobRepo}
}

// NormalizeURL strips the query, fragment and trailing slash so the
// same offer reached through different tracking parameters stores
// once. Invalid URLs are kept as-is minus whitespace.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimSuffix(raw, "/")
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

// normalizeFuzzy lowercases, strips accents and punctuation and
// collapses whitespace, for title+company comparison across sources.
func normalizeFuzzy(s string) string {
	s = cvtext.StripAccents(strings.ToLower(s))
	var b strings.Builder
	prevSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace && b.Len() > 0 {
				b.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func (s *ingestService) Ingest(raw providers.Listing) (*models.JobListing, bool, error) {
	normalized := NormalizeURL(raw.URL)
	if normalized == "" {
		return nil, false, nil
	}

	existing, err := s.jobRepo.FindByURL(normalized)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrJobNotFound) {
		return nil, false, err
	}

	// Cross-aggregator republishing: the same offer under a different
	// URL. An exact normalized title+company match within a bounded
	// company-prefix window counts as the same listing.
	if dup, err := s.findFuzzyDuplicate(raw); err != nil {
		return nil, false, err
	} else if dup != nil {
		return dup, false, nil
	}

	job := &models.JobListing{
		Source:      raw.Source,
		Title:       raw.Title,
		Company:     raw.Company,
		Location:    raw.Location,
		URL:         normalized,
		Description: raw.Description,
		SalaryMin:   raw.SalaryMin,
	}
	if err := s.jobRepo.Create(job); err != nil {
		// Lost an insert race: another worker stored the same URL
		// between lookup and insert. Treat as existing.
		if errors.Is(err, repositories.ErrJobAlreadyExists) {
			existing, ferr := s.jobRepo.FindByURL(normalized)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return job, true, nil
}

func (s *ingestService) findFuzzyDuplicate(raw providers.Listing) (*models.JobListing, error) {
	title := normalizeFuzzy(raw.Title)
	company := normalizeFuzzy(raw.Company)
	if title == "" || company == "" {
		return nil, nil
	}

	prefix := company
	if r := []rune(prefix); len(r) > companyPrefixLen {
		prefix = string(r[:companyPrefixLen])
	}
	candidates, err := s.jobRepo.FuzzyCandidates(prefix)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		c := &candidates[i]
		if normalizeFuzzy(c.Title) == title && normalizeFuzzy(c.Company) == company {
			return c, nil
		}
	}
	return nil, nil
}

func (s *ingestService) IngestBatch(raws []providers.Listing) ([]*models.JobListing, int, error) {
	jobs := make([]*models.JobListing, 0, len(raws))
	inserted := 0
	for _, raw := range raws {
		job, created, err := s.Ingest(raw)
		if err != nil {
			return jobs, inserted, err
		}
		if job == nil {
			logger.Debug("skipping listing without url", "source", raw.Source, "title", raw.Title)
			continue
		}
		jobs = append(jobs, job)
		if created {
			inserted++
		}
	}
	return jobs, inserted, nil
}
