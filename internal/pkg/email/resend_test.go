package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage() *Message {
	return &Message{
		To:      "candidat@test.fr",
		Subject: "Vos offres",
		Text:    "bonjour",
		HTML:    "<p>bonjour</p>",
	}
}

func newAPIServer(t *testing.T, handler http.HandlerFunc) *APISender {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAPISender(APIConfig{
		APIKey:  "re_test_key",
		From:    "Alizé <notify@alize.fr>",
		BaseURL: srv.URL,
	})
}

func TestAPISenderDeliversPayload(t *testing.T) {
	var got apiPayload
	var auth string
	sender := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, sender.Send(context.Background(), testMessage()))
	assert.Equal(t, "Bearer re_test_key", auth)
	assert.Equal(t, "Alizé <notify@alize.fr>", got.From)
	assert.Equal(t, []string{"candidat@test.fr"}, got.To)
	assert.Equal(t, "Vos offres", got.Subject)
	assert.Equal(t, "<p>bonjour</p>", got.HTML)
}

func TestAPISenderRetriesServerError(t *testing.T) {
	var calls atomic.Int32
	sender := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, sender.Send(context.Background(), testMessage()))
	assert.EqualValues(t, 2, calls.Load())
}

func TestAPISenderRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	sender := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, sender.Send(context.Background(), testMessage()))
	assert.EqualValues(t, 2, calls.Load())
}

func TestAPISenderClientErrorFailsFast(t *testing.T) {
	var calls atomic.Int32
	sender := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	err := sender.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.EqualValues(t, 1, calls.Load(), "4xx must not be retried")
}

func TestAPISenderExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	sender := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := sender.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.EqualValues(t, maxAttempts, calls.Load())
}

func TestAPISenderHonorsContextDuringBackoff(t *testing.T) {
	sender := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sender.Send(ctx, testMessage())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAPISenderConfigured(t *testing.T) {
	assert.True(t, NewAPISender(APIConfig{APIKey: "k", From: "a@b.fr"}).Configured())
	assert.False(t, NewAPISender(APIConfig{APIKey: "k"}).Configured())
	assert.False(t, NewAPISender(APIConfig{From: "a@b.fr"}).Configured())
}

func TestRetryableStatus(t *testing.T) {
	assert.True(t, retryableStatus(http.StatusTooManyRequests))
	assert.True(t, retryableStatus(http.StatusInternalServerError))
	assert.True(t, retryableStatus(http.StatusServiceUnavailable))
	assert.False(t, retryableStatus(http.StatusBadRequest))
	assert.False(t, retryableStatus(http.StatusUnauthorized))
	assert.False(t, retryableStatus(http.StatusOK))
}
