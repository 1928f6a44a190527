package reminder

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces batch submissions to stay under the delivery provider's
// rate ceiling. Wait is called before every batch; the first call of a
// fresh pacer returns immediately, later calls block for the interval.
type Pacer interface {
	Wait(ctx context.Context) error
}

type tokenPacer struct {
	lim *rate.Limiter
}

// NewPacer returns a token-bucket pacer with burst 1, so batches after the
// first each pay the full interval and no delay trails the final batch.
func NewPacer(interval time.Duration) Pacer {
	if interval <= 0 {
		return nopPacer{}
	}
	return tokenPacer{lim: rate.NewLimiter(rate.Every(interval), 1)}
}

func (p tokenPacer) Wait(ctx context.Context) error { return p.lim.Wait(ctx) }

type nopPacer struct{}

func (nopPacer) Wait(context.Context) error { return nil }
