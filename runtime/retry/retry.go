// Package retry provides the contended-operation retry primitive used for
// instance locking and bulk migration locking.
package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

var (
	// ErrExhausted is returned when every attempt observed contention
	ErrExhausted = errors.New("retry: attempts exhausted")
	// ErrInterrupted is returned when the wait between attempts was cancelled
	ErrInterrupted = errors.New("retry: interrupted")

	errContended = errors.New("retry: contended")
)

const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

// Policy controls number of attempts and the wait between them
type Policy struct {
	MaxAttempts int           `json:"maxAttempts" yaml:"maxAttempts"`
	Delay       time.Duration `json:"delay" yaml:"delay"`
	MaxDelay    time.Duration `json:"maxDelay,omitempty" yaml:"maxDelay,omitempty"`
	Backoff     string        `json:"backoff,omitempty" yaml:"backoff,omitempty"`
}

// DefaultPolicy returns the instance locking policy
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 30, Delay: 50 * time.Millisecond, MaxDelay: time.Second, Backoff: BackoffFixed}
}

// Hooks observe the retry loop; every hook is optional
type Hooks struct {
	// FailedWaiting is called after a contended attempt, before sleeping
	FailedWaiting func(attempt int, wait time.Duration)
	// Interrupted is called when the context ends while waiting
	Interrupted func(err error)
	// FailedPermanently is called once all attempts were contended
	FailedPermanently func(attempts int)
}

// Attempt tries the contended action once. ok=false signals contention and
// triggers another attempt; a non nil error aborts immediately.
type Attempt[T any] func(ctx context.Context) (value T, ok bool, err error)

// Do runs attempt until it succeeds, fails, gets interrupted or exhausts the policy
func Do[T any](ctx context.Context, policy Policy, hooks Hooks, attempt Attempt[T]) (T, error) {
	var result T
	attempts := 0
	err := goretry.Do(ctx, policy.backoff(&attempts, hooks), func(ctx context.Context) error {
		attempts++
		value, ok, err := attempt(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return goretry.RetryableError(errContended)
		}
		result = value
		return nil
	})
	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, errContended):
		if hooks.FailedPermanently != nil {
			hooks.FailedPermanently(attempts)
		}
		return result, fmt.Errorf("%w after %d attempts", ErrExhausted, attempts)
	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		if hooks.Interrupted != nil {
			hooks.Interrupted(err)
		}
		return result, fmt.Errorf("%w: %v", ErrInterrupted, err)
	}
	return result, err
}

func (p Policy) backoff(attempts *int, hooks Hooks) goretry.Backoff {
	delay := p.Delay
	if delay <= 0 {
		delay = time.Millisecond
	}
	var next goretry.Backoff
	if strings.EqualFold(p.Backoff, BackoffExponential) {
		next = goretry.NewExponential(delay)
	} else {
		next = goretry.NewConstant(delay)
	}
	if p.MaxDelay > 0 {
		next = goretry.WithCappedDuration(p.MaxDelay, next)
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	next = goretry.WithMaxRetries(uint64(maxAttempts-1), next)
	return goretry.BackoffFunc(func() (time.Duration, bool) {
		wait, stop := next.Next()
		if !stop && hooks.FailedWaiting != nil {
			hooks.FailedWaiting(*attempts, wait)
		}
		return wait, stop
	})
}
