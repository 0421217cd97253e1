package llm

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// ErrInvalidRPM is returned when a limiter is constructed with rpm <= 0.
var ErrInvalidRPM = errors.New("rpm must be greater than zero")

// Limiter smooths outbound calls for one provider to a fixed interval of
// 60/rpm seconds between grants, shared across all concurrent callers.
// Burst is pinned to 1 so admission is evenly spaced rather than bursty.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter builds a limiter for the given requests-per-minute budget.
func NewLimiter(rpm int) (*Limiter, error) {
	if rpm <= 0 {
		return nil, ErrInvalidRPM
	}
	interval := time.Duration(float64(time.Minute) / float64(rpm))
	return &Limiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}, nil
}

// Wait blocks until the next grant is due or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
