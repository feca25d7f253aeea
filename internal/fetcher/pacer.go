package fetcher

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Pacer defers outbound requests according to a scheduling policy. The
// orchestrator calls Wait before every fetch, so swapping the policy (say,
// for a per-host token bucket) never touches the run loop.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedIntervalPacer enforces a single global delay between consecutive
// fetches, regardless of destination host.
type FixedIntervalPacer struct {
	limiter *rate.Limiter
}

// NewFixedIntervalPacer builds a pacer that spaces fetches by interval.
// The initial token is drained so the delay applies before the first
// fetch of a run as well.
func NewFixedIntervalPacer(interval time.Duration) *FixedIntervalPacer {
	if interval <= 0 {
		return &FixedIntervalPacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	limiter.Allow()
	return &FixedIntervalPacer{limiter: limiter}
}

// Wait blocks until the next fetch slot, respecting the context.
func (p *FixedIntervalPacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacer wait: %w", err)
	}
	return nil
}
