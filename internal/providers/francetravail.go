package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"alize_backend/internal/logger"
	"alize_backend/pkg/apperrors"
)

const (
	franceTravailTokenURL  = "https://entreprise.francetravail.fr/connexion/oauth2/access_token?realm=%2Fpartenaire"
	franceTravailSearchV2  = "https://api.francetravail.io/partenaire/offresdemploi/v2/offres/search"
	franceTravailSearchV1  = "https://api.francetravail.io/partenaire/offresdemploi/search"
	franceTravailTokenSlop = 60 * time.Second
)

// FranceTravail queries the France Travail (ex Pole Emploi) partner
// API. Tokens come from the OAuth2 client-credentials flow; the
// accepted scope string has changed over API generations, so token
// fetch walks a list of known scopes until one works.
type FranceTravail struct {
	clientID     string
	clientSecret string
	tokenURL     string
	searchV2     string
	searchV1     string
	client       *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewFranceTravail(clientID, clientSecret string) *FranceTravail {
	return &FranceTravail{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     franceTravailTokenURL,
		searchV2:     franceTravailSearchV2,
		searchV1:     franceTravailSearchV1,
		client:       newHTTPClient(),
	}
}

func (f *FranceTravail) Name() string { return "FranceTravail" }

func (f *FranceTravail) Configured() bool {
	return f.clientID != "" && f.clientSecret != ""
}

type ftTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (f *FranceTravail) scopes() []string {
	return []string{
		"api_offresdemploiv2 o2dsoffre",
		"api_offresdemploi o2dsoffre",
		"application_" + f.clientID + " api_offresdemploiv2",
		"application_" + f.clientID + " api_offresdemploi",
	}
}

// fetchToken tries each known scope with Basic auth first, then with
// credentials in the form body. The first access_token wins.
func (f *FranceTravail) fetchToken(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.token != "" && time.Now().Before(f.tokenExpiry) {
		return f.token, nil
	}

	var lastErr error
	for _, scope := range f.scopes() {
		for _, basic := range []bool{true, false} {
			token, expiresIn, err := f.tokenAttempt(ctx, scope, basic)
			if err != nil {
				lastErr = err
				continue
			}
			f.token = token
			f.tokenExpiry = time.Now().Add(time.Duration(expiresIn)*time.Second - franceTravailTokenSlop)
			logger.Debug("france travail token retrieved", "scope", scope, "basic", basic)
			return token, nil
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no scope accepted")
	}
	return "", lastErr
}

func (f *FranceTravail) tokenAttempt(ctx context.Context, scope string, basic bool) (string, int, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", scope)
	if !basic {
		form.Set("client_id", f.clientID)
		form.Set("client_secret", f.clientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if basic {
		req.SetBasicAuth(f.clientID, f.clientSecret)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var parsed ftTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", 0, err
	}
	if parsed.AccessToken == "" {
		return "", 0, fmt.Errorf("empty access_token")
	}
	if parsed.ExpiresIn <= 0 {
		parsed.ExpiresIn = 300
	}
	return parsed.AccessToken, parsed.ExpiresIn, nil
}

type ftSearchResponse struct {
	Resultats []struct {
		Intitule   string `json:"intitule"`
		Entreprise struct {
			Nom string `json:"nom"`
		} `json:"entreprise"`
		LieuTravail struct {
			Libelle string `json:"libelle"`
		} `json:"lieuTravail"`
		OrigineOffre struct {
			URLOrigine string `json:"urlOrigine"`
			URLAnnonce string `json:"urlAnnonce"`
		} `json:"origineOffre"`
		Description string `json:"description"`
		Salaire     struct {
			BasSalaire float64 `json:"basSalaire"`
		} `json:"salaire"`
	} `json:"resultats"`
}

func (f *FranceTravail) Search(ctx context.Context, query, location string) ([]Listing, error) {
	if !f.Configured() {
		return nil, nil
	}
	token, err := f.fetchToken(ctx)
	if err != nil {
		return nil, apperrors.ErrProvider(err, f.Name())
	}

	// The API has no simple free-text location filter; anything more
	// specific than the whole country folds into the keywords.
	mots := query
	if location != "" && !strings.EqualFold(location, "france") {
		mots = query + " " + location
	}
	params := url.Values{}
	params.Set("motsCles", mots)
	params.Set("range", fmt.Sprintf("0-%d", pageLimit-1))
	params.Set("sort", "1")

	parsed, err := f.search(ctx, f.searchV2, params, token)
	if err != nil {
		logger.Warn("france travail v2 search failed, trying v1", "error", err)
		parsed, err = f.search(ctx, f.searchV1, params, token)
		if err != nil {
			return nil, apperrors.ErrProvider(err, f.Name())
		}
	}

	listings := make([]Listing, 0, len(parsed.Resultats))
	for _, item := range parsed.Resultats {
		u := orElse(item.OrigineOffre.URLOrigine, item.OrigineOffre.URLAnnonce)
		if u == "" {
			continue
		}
		listings = append(listings, Listing{
			Source:      f.Name(),
			Title:       orElse(item.Intitule, placeholderTitle),
			Company:     orElse(item.Entreprise.Nom, placeholderCompany),
			Location:    orElse(item.LieuTravail.Libelle, "France"),
			URL:         u,
			Description: item.Description,
			SalaryMin:   intPtr(item.Salaire.BasSalaire),
		})
	}
	return listings, nil
}

func (f *FranceTravail) search(ctx context.Context, endpoint string, params url.Values, token string) (*ftSearchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// 204: valid query, zero offers.
	if resp.StatusCode == http.StatusNoContent {
		return &ftSearchResponse{}, nil
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("search returned %d", resp.StatusCode)
	}

	var parsed ftSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}
