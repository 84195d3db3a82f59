package ratelimit

import (
	"context"
	"time"
)

// Sleep blocks for d or until the context is canceled, whichever comes
// first. It exists for callers that must pause after an operation rather
// than pace before it, like the mandatory post-request autocomplete delay.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
