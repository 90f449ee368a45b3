package scraper

import (
	"context"
	"math/rand"
	"time"
)

// Delay sleeps for a random duration in [min, max], mimicking a human
// reading pace between requests. Returns early with the context error when
// the context is cancelled; callers abort the cycle on that.
func Delay(ctx context.Context, min, max time.Duration) error {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}

	d := min
	if span := max - min; span > 0 {
		d += time.Duration(rand.Int63n(int64(span) + 1))
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
