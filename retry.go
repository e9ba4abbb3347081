package chrono

import (
	"context"
	"math/rand/v2"
	"time"
)

// Backoff bounds of Backoff.
const (
	backoffBase = time.Millisecond
	backoffMax  = 100 * time.Millisecond
)

// Backoff waits before retry attempt n, counted from zero, of a unit of
// work that lost a race. The delay doubles with every attempt up to
// 100ms and is jittered so that contenders do not collide again. It
// returns early with the context error when ctx ends.
func Backoff(ctx context.Context, attempt int) error {
	d := backoffMax
	if attempt < 7 {
		d = min(backoffBase<<attempt, backoffMax)
	}
	d = d/2 + rand.N(d/2+1)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
