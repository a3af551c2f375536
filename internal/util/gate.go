package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Gate paces outbound work.
type Gate interface {
	Wait(ctx context.Context) error
}

// IntervalGate lets one caller through per interval. The first Wait returns
// immediately, so nothing is paused after the last unit of work. It spaces
// the starts of work units rather than adding a pause between them: when a
// unit takes longer than the interval, the next Wait returns at once.
type IntervalGate struct {
	limiter *rate.Limiter
}

func NewIntervalGate(interval time.Duration) *IntervalGate {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &IntervalGate{limiter: rate.NewLimiter(limit, 1)}
}

func (g *IntervalGate) Wait(ctx context.Context) error {
	if g == nil {
		return nil
	}
	return g.limiter.Wait(ctx)
}
