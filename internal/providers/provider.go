package providers

import (
	"context"
	"net/http"
	"time"
)

// Listing is a raw job offer as returned by an external source, before
// deduplication and scoring.
type Listing struct {
	Source      string
	Title       string
	Company     string
	Location    string
	URL         string
	Description string
	SalaryMin   *int
}

// Provider is a single external job source. Search returns at most a
// page of listings; an error means the source contributed nothing for
// this query and the caller moves on to the next source.
type Provider interface {
	Name() string
	Search(ctx context.Context, query, location string) ([]Listing, error)
}

const (
	requestTimeout = 8 * time.Second
	pageLimit      = 15

	// French-facing placeholders kept from the product copy.
	placeholderTitle   = "Sans titre"
	placeholderCompany = "N/A"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

func orElse(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func intPtr(f float64) *int {
	if f <= 0 {
		return nil
	}
	v := int(f)
	return &v
}
