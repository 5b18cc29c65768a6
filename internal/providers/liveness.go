package providers

import (
	"context"
	"net/http"
	"time"
)

// Probe checks whether a listing URL still resolves. Fail-open: only
// an explicit 404/410 marks a listing dead; network errors, timeouts
// and odd statuses all count as alive, so a flaky site never expires
// a user's saved jobs.
type Probe struct {
	client *http.Client
}

func NewProbe() *Probe {
	return &Probe{client: &http.Client{Timeout: 3 * time.Second}}
}

func (p *Probe) IsAlive(ctx context.Context, url string) bool {
	status, err := p.request(ctx, http.MethodHead, url)
	if err != nil {
		return true
	}
	switch status {
	case http.StatusNotFound, http.StatusGone:
		return false
	case http.StatusForbidden, http.StatusMethodNotAllowed:
		// Some sites refuse HEAD; retry with a one-byte GET.
		status, err = p.request(ctx, http.MethodGet, url)
		if err != nil {
			return true
		}
		return status != http.StatusNotFound && status != http.StatusGone
	}
	return true
}

func (p *Probe) request(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", userAgent)
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
