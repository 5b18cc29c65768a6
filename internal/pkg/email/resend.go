package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"alize_backend/internal/logger"
)

// APIConfig configures the Resend-style HTTP transport.
type APIConfig struct {
	APIKey  string
	From    string // "Name <addr>" or bare address
	BaseURL string // e.g. https://api.resend.com
}

// APISender delivers mail through a Resend-compatible HTTP API.
// Transient failures (network errors, 5xx, 429) are retried with
// exponential backoff; any other 4xx aborts immediately.
type APISender struct {
	cfg    APIConfig
	client *http.Client
}

func NewAPISender(cfg APIConfig) *APISender {
	return &APISender{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *APISender) Name() string { return "resend" }

func (s *APISender) Configured() bool {
	return s.cfg.APIKey != "" && s.cfg.From != ""
}

type apiPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	HTML    string   `json:"html,omitempty"`
}

func (s *APISender) Send(ctx context.Context, msg *Message) error {
	body, err := json.Marshal(apiPayload{
		From:    s.cfg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, backoff(attempt-1)); err != nil {
				return err
			}
		}

		status, respBody, err := s.post(ctx, body)
		if err != nil {
			lastErr = err
			logger.Warn("resend request failed", "attempt", attempt+1, "error", err)
			continue
		}
		if status >= 200 && status < 300 {
			return nil
		}
		lastErr = fmt.Errorf("resend API returned %d: %s", status, respBody)
		if !retryableStatus(status) {
			return lastErr
		}
		logger.Warn("resend rejected message", "attempt", attempt+1, "status", status)
	}
	return lastErr
}

func (s *APISender) post(ctx context.Context, body []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, string(b), nil
}

// retryableStatus reports whether an HTTP status is worth another
// attempt. 429 is rate limiting; 5xx is a server-side fault. Other
// client errors (bad key, malformed payload) never heal on retry.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
