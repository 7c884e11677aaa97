package lifecycle

import (
	"context"
	"math/rand"
	"time"
)

// Backoff yields exponentially growing retry delays between min and max.
// Each delay is jittered by up to 20% either way. Not safe for concurrent use.
type Backoff struct {
	min, max time.Duration
	next     time.Duration
}

// NewBackoff returns a Backoff starting at min and capped at max.
func NewBackoff(min, max time.Duration) *Backoff {
	return &Backoff{min: min, max: max, next: min}
}

// Duration returns the jittered delay for this retry and doubles the next one.
func (b *Backoff) Duration() time.Duration {
	d := b.next
	jitter := time.Duration((rand.Float64()*0.4 - 0.2) * float64(d))

	b.next *= 2
	if b.next > b.max {
		b.next = b.max
	}
	return d + jitter
}

// Wait sleeps for Duration. It returns ctx.Err() if ctx ends first.
func (b *Backoff) Wait(ctx context.Context) error {
	t := time.NewTimer(b.Duration())
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Reset starts over at the minimum delay after a success.
func (b *Backoff) Reset() {
	b.next = b.min
}

// Current returns the unjittered delay of the next retry.
func (b *Backoff) Current() time.Duration {
	return b.next
}
