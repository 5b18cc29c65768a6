package email

import (
	"context"

	"alize_backend/internal/logger"
	"alize_backend/pkg/apperrors"
)

// FallbackSender tries each transport in order and stops at the first
// success. A message counts as delivered when any transport accepts
// it; if all fail the caller gets a delivery error wrapping the last
// transport's failure.
type FallbackSender struct {
	chain []Sender
}

func NewFallbackSender(senders ...Sender) *FallbackSender {
	return &FallbackSender{chain: senders}
}

func (f *FallbackSender) Name() string { return "fallback" }

func (f *FallbackSender) Send(ctx context.Context, msg *Message) error {
	if len(f.chain) == 0 {
		return apperrors.ErrDelivery(nil)
	}

	var lastErr error
	for _, s := range f.chain {
		err := s.Send(ctx, msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		logger.Warn("email transport exhausted, falling back",
			"transport", s.Name(), "to", msg.To, "error", err)
	}
	return apperrors.ErrDelivery(lastErr)
}
