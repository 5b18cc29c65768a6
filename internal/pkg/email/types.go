package email

import (
	"context"
	"time"
)

// Message is a fully rendered email ready to hand to a transport.
// Text is always set; HTML is an optional alternative part.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a single message. Implementations handle their own
// retries; an error means the message was not accepted for delivery.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg *Message) error
}

const maxAttempts = 3

// backoff returns the pause before retry number attempt (0-based):
// 1s, 2s, 4s...
func backoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
