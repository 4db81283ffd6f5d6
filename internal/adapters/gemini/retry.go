package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/ahadullabaig/Bean/pkg/metrics"
)

// Default retry configuration, mirroring the bounds the generation service
// documents for transient outages.
const (
	defaultMaxAttempts = 3
	defaultMinBackoff  = 2 * time.Second
	defaultMaxBackoff  = 10 * time.Second
)

// Policy is an explicit, testable retry policy for remote generation calls.
// Only KindTransient failures are retried; rate-limit and authentication
// failures surface immediately as typed errors, and fatal errors propagate
// unchanged. The zero value is unusable; use DefaultPolicy.
type Policy struct {
	// MaxAttempts bounds the total number of calls, first try included.
	MaxAttempts int

	// MinBackoff and MaxBackoff bound the exponential backoff between
	// transient-failure attempts.
	MinBackoff time.Duration
	MaxBackoff time.Duration

	// RetryAfter is attached to RateLimitError when the service gives no
	// window of its own.
	RetryAfter time.Duration

	// Sleep is injectable so tests can substitute a zero-wait policy.
	// Nil means real, context-aware sleeping.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns the production retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: defaultMaxAttempts,
		MinBackoff:  defaultMinBackoff,
		MaxBackoff:  defaultMaxBackoff,
		RetryAfter:  DefaultRetryAfter,
	}
}

// Do invokes call, retrying transient failures with exponential backoff.
// After exhausting attempts the last transient error is returned unchanged.
func (p Policy) Do(ctx context.Context, call func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := call(ctx)
		if err == nil {
			return nil
		}

		kind := Classify(err)
		metrics.RecordRemoteCallError(kind.String())
		switch kind {
		case KindRateLimited:
			retryAfter := p.RetryAfter
			if retryAfter <= 0 {
				retryAfter = DefaultRetryAfter
			}
			return &RateLimitError{RetryAfter: retryAfter, Err: err}
		case KindUnauthenticated:
			return &AuthenticationError{Err: err}
		case KindTransient:
			last = err
			if attempt == attempts {
				break
			}
			metrics.RecordRemoteCallRetry()
			if serr := p.sleep(ctx, p.backoff(attempt)); serr != nil {
				return fmt.Errorf("retry interrupted: %w", last)
			}
		default:
			return err
		}
	}
	return last
}

// backoff returns the wait before the attempt following the given one:
// MinBackoff doubled per attempt, capped at MaxBackoff.
func (p Policy) backoff(attempt int) time.Duration {
	d := p.MinBackoff
	if d <= 0 {
		d = defaultMinBackoff
	}
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
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
