package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"alize_backend/pkg/apperrors"
)

const adzunaBaseURL = "https://api.adzuna.com/v1/api/jobs"

// Adzuna queries the Adzuna REST API with app_id/app_key credentials.
type Adzuna struct {
	appID   string
	appKey  string
	country string
	baseURL string
	client  *http.Client
}

func NewAdzuna(appID, appKey, country string) *Adzuna {
	if country == "" {
		country = "fr"
	}
	return &Adzuna{
		appID:   appID,
		appKey:  appKey,
		country: country,
		baseURL: adzunaBaseURL,
		client:  newHTTPClient(),
	}
}

func (a *Adzuna) Name() string { return "Adzuna" }

func (a *Adzuna) Configured() bool { return a.appID != "" && a.appKey != "" }

type adzunaResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Company struct {
			DisplayName string `json:"display_name"`
		} `json:"company"`
		Location struct {
			DisplayName string `json:"display_name"`
		} `json:"location"`
		RedirectURL string  `json:"redirect_url"`
		Description string  `json:"description"`
		SalaryMin   float64 `json:"salary_min"`
	} `json:"results"`
}

func (a *Adzuna) Search(ctx context.Context, query, location string) ([]Listing, error) {
	if !a.Configured() {
		return nil, nil
	}

	params := url.Values{}
	params.Set("app_id", a.appID)
	params.Set("app_key", a.appKey)
	params.Set("what", query)
	params.Set("where", location)
	params.Set("results_per_page", fmt.Sprint(pageLimit))
	params.Set("sort_by", "date")
	params.Set("content-type", "application/json")

	endpoint := fmt.Sprintf("%s/%s/search/1?%s", a.baseURL, a.country, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.ErrProvider(err, a.Name())
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, apperrors.ErrProvider(err, a.Name())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.ErrProvider(fmt.Errorf("status %d", resp.StatusCode), a.Name())
	}

	var parsed adzunaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperrors.ErrProvider(err, a.Name())
	}

	listings := make([]Listing, 0, len(parsed.Results))
	for _, item := range parsed.Results {
		if item.RedirectURL == "" {
			continue
		}
		listings = append(listings, Listing{
			Source:      a.Name(),
			Title:       orElse(item.Title, placeholderTitle),
			Company:     orElse(item.Company.DisplayName, placeholderCompany),
			Location:    orElse(item.Location.DisplayName, orElse(location, placeholderCompany)),
			URL:         item.RedirectURL,
			Description: item.Description,
			SalaryMin:   intPtr(item.SalaryMin),
		})
	}
	return listings, nil
}
