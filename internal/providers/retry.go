package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"reelsmith/internal/services"
)

const (
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 500 * time.Millisecond
	defaultRetryMaxDelay  = 8 * time.Second
)

// HTTPStatusError carries a provider HTTP failure with enough detail to
// classify it and honor server-directed backoff.
type HTTPStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// ParseRetryAfter interprets a Retry-After header value as a delay.
func ParseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		if delay := time.Until(at); delay > 0 {
			return delay, true
		}
	}
	return 0, false
}

// RetryPolicy bounds retry behavior for outbound provider calls.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy returns the policy used when config omits retry tuning.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: defaultRetryAttempts,
		BaseDelay:   defaultRetryBaseDelay,
		MaxDelay:    defaultRetryMaxDelay,
	}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// attempt is 1-based; the delay precedes the next attempt.
func (p RetryPolicy) backoffDelay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = defaultRetryBaseDelay
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			return maxDelay
		}
		delay *= 2
	}
	return delay
}

func (p RetryPolicy) capDelay(delay time.Duration) time.Duration {
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

// Retry runs op with exponential backoff until it succeeds, fails with a
// non-retryable error, or exhausts the attempt budget.
func Retry(ctx context.Context, clock Clock, policy RetryPolicy, op func() error) error {
	attempts := policy.attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		delay, retry := policy.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return err
		}
		if err := clock.Sleep(ctx, delay); err != nil {
			return err
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

func (p RetryPolicy) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return p.capDelay(statusErr.RetryAfter), true
			}
			return p.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return p.backoffDelay(attempt), true
	}

	if services.Retryable(err) {
		return p.backoffDelay(attempt), true
	}
	return 0, false
}

// RateLimiter spaces outbound calls by a minimum interval. Repeated 429s
// within a run grow the spacing so a hot provider cools off for the rest of
// the batch instead of each worker rediscovering the limit.
type RateLimiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	penalty     time.Duration
	lastCall    time.Time
}

// NewRateLimiter builds a limiter with the given base spacing. A zero
// interval disables spacing until a 429 introduces a penalty.
func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	return &RateLimiter{minInterval: minInterval}
}

// Wait blocks until the next call window opens.
func (r *RateLimiter) Wait(ctx context.Context, clock Clock) error {
	r.mu.Lock()
	interval := r.minInterval + r.penalty
	last := r.lastCall
	r.mu.Unlock()
	if last.IsZero() || interval <= 0 {
		return ctx.Err()
	}
	elapsed := clock.Now().Sub(last)
	if elapsed >= interval {
		return ctx.Err()
	}
	return clock.Sleep(ctx, interval-elapsed)
}

// Mark records that a call was just made.
func (r *RateLimiter) Mark(clock Clock) {
	r.mu.Lock()
	r.lastCall = clock.Now()
	r.mu.Unlock()
}

// Penalize widens the spacing window after a 429. The penalty doubles on
// each subsequent call, capped at the default max delay.
func (r *RateLimiter) Penalize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.penalty == 0 {
		r.penalty = defaultRetryBaseDelay
		return
	}
	r.penalty *= 2
	if r.penalty > defaultRetryMaxDelay {
		r.penalty = defaultRetryMaxDelay
	}
}
