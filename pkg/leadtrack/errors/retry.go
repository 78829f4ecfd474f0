package errors

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Policy decides how often a loader fetch is attempted and how long to wait
// between attempts. The zero value makes a single attempt.
type Policy struct {
	// MaxAttempts counts the first attempt too.
	MaxAttempts int

	// InitialBackoff is the wait after the first failed attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait. Zero means no cap.
	MaxBackoff time.Duration

	// Multiplier grows the wait after each failed attempt. Values below 1
	// keep it constant.
	Multiplier float64

	// Jitter spreads each wait by up to this fraction in either direction.
	Jitter float64
}

// DefaultPolicy is used by loaders that are not given one.
var DefaultPolicy = Policy{
	MaxAttempts:    3,
	InitialBackoff: 500 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
	Multiplier:     2,
	Jitter:         0.1,
}

// NoRetry makes exactly one attempt.
var NoRetry = Policy{MaxAttempts: 1}

// PolicyOption adjusts a Policy built by NewPolicy.
type PolicyOption func(*Policy)

// WithMaxAttempts sets the total number of attempts.
func WithMaxAttempts(n int) PolicyOption {
	return func(p *Policy) { p.MaxAttempts = n }
}

// WithInitialBackoff sets the first wait.
func WithInitialBackoff(d time.Duration) PolicyOption {
	return func(p *Policy) { p.InitialBackoff = d }
}

// WithMaxBackoff caps every wait.
func WithMaxBackoff(d time.Duration) PolicyOption {
	return func(p *Policy) { p.MaxBackoff = d }
}

// WithJitter sets the jitter fraction, clamped to [0, 1].
func WithJitter(f float64) PolicyOption {
	return func(p *Policy) { p.Jitter = math.Min(math.Max(f, 0), 1) }
}

// NewPolicy starts from DefaultPolicy and applies opts.
func NewPolicy(opts ...PolicyOption) Policy {
	p := DefaultPolicy
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Backoff returns the wait after failed attempt n (1-based), before jitter.
func (p Policy) Backoff(n int) time.Duration {
	if n < 1 || p.InitialBackoff <= 0 {
		return 0
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.InitialBackoff) * math.Pow(mult, float64(n-1))
	if p.MaxBackoff > 0 && d > float64(p.MaxBackoff) {
		d = float64(p.MaxBackoff)
	}
	return time.Duration(d)
}

func (p Policy) wait(n int) time.Duration {
	d := p.Backoff(n)
	if p.Jitter <= 0 || d == 0 {
		return d
	}
	return time.Duration(float64(d) * (1 + p.Jitter*(rand.Float64()*2-1)))
}

// Do calls fn until it succeeds, fails permanently, or runs out of
// attempts. It returns the number of attempts made. A non-nil error is
// always a *CategorizedError wrapping the last failure.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	limit := max(p.MaxAttempts, 1)

	var last error
	for attempt := 1; attempt <= limit; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, &CategorizedError{Err: err, Category: CategoryPermanent, Retries: attempt - 1, Context: "context cancelled"}
		}

		last = fn(ctx, attempt)
		if last == nil {
			return attempt, nil
		}
		if !IsRetryable(last) {
			return attempt, &CategorizedError{Err: last, Category: Categorize(last), Retries: attempt}
		}
		if attempt == limit {
			break
		}

		timer := time.NewTimer(p.wait(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, &CategorizedError{Err: ctx.Err(), Category: CategoryPermanent, Retries: attempt, Context: "context cancelled during backoff"}
		case <-timer.C:
		}
	}

	return limit, &CategorizedError{Err: last, Category: Categorize(last), Retries: limit, Context: "max attempts exceeded"}
}
