package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"alize_backend/pkg/apperrors"
)

const remotiveBaseURL = "https://remotive.com/api/remote-jobs"

// Remotive queries the public Remotive API. Remote-only listings, no
// credentials required.
type Remotive struct {
	baseURL string
	client  *http.Client
}

func NewRemotive() *Remotive {
	return &Remotive{baseURL: remotiveBaseURL, client: newHTTPClient()}
}

func (r *Remotive) Name() string { return "Remotive" }

type remotiveResponse struct {
	Jobs []struct {
		Title            string `json:"title"`
		CompanyName      string `json:"company_name"`
		RequiredLocation string `json:"candidate_required_location"`
		URL              string `json:"url"`
		Description      string `json:"description"`
	} `json:"jobs"`
}

func (r *Remotive) Search(ctx context.Context, query, _ string) ([]Listing, error) {
	params := url.Values{}
	params.Set("search", query)
	params.Set("limit", fmt.Sprint(pageLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperrors.ErrProvider(err, r.Name())
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, apperrors.ErrProvider(err, r.Name())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.ErrProvider(fmt.Errorf("status %d", resp.StatusCode), r.Name())
	}

	var parsed remotiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperrors.ErrProvider(err, r.Name())
	}

	listings := make([]Listing, 0, len(parsed.Jobs))
	for _, job := range parsed.Jobs {
		if job.URL == "" {
			continue
		}
		listings = append(listings, Listing{
			Source:      r.Name(),
			Title:       orElse(job.Title, placeholderTitle),
			Company:     orElse(job.CompanyName, placeholderCompany),
			Location:    orElse(job.RequiredLocation, "Remote"),
			URL:         job.URL,
			Description: job.Description,
		})
	}
	return listings, nil
}
