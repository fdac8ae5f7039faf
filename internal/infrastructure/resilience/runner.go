// Package resilience wraps outbound calls with bounded retries and a
// per-operation circuit breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Verdict tells the runner what to do with a failed attempt.
type Verdict struct {
	Retry       bool
	CountsAsDip bool // whether the breaker should record the failure
}

// Classifier maps an error onto a Verdict. Adapters supply their own.
type Classifier func(err error) Verdict

type Options struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Growth    float64

	BreakerDisabled     bool
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerOpenFor      time.Duration
	BreakerProbeCalls   uint32
}

func (o Options) withDefaults() Options {
	if o.Attempts <= 0 {
		o.Attempts = 3
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 100 * time.Millisecond
	}
	if o.MaxDelay < o.BaseDelay {
		o.MaxDelay = 4 * o.BaseDelay
	}
	if o.Growth < 1.0 {
		o.Growth = 2.0
	}
	if o.BreakerMinRequests == 0 {
		o.BreakerMinRequests = 10
	}
	if o.BreakerFailureRatio <= 0 || o.BreakerFailureRatio > 1 {
		o.BreakerFailureRatio = 0.5
	}
	if o.BreakerOpenFor <= 0 {
		o.BreakerOpenFor = 30 * time.Second
	}
	if o.BreakerProbeCalls == 0 {
		o.BreakerProbeCalls = 2
	}
	return o
}

// Runner executes callbacks under the retry/breaker policy. One breaker
// per operation label, created lazily.
type Runner struct {
	opts Options

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewRunner(opts Options) *Runner {
	return &Runner{
		opts:     opts.withDefaults(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

func (r *Runner) Do(ctx context.Context, operation string, fn func(context.Context) error, classify Classifier) error {
	if fn == nil {
		return fmt.Errorf("resilience: nil callback for %q", operation)
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if classify == nil {
		classify = func(error) Verdict { return Verdict{CountsAsDip: true} }
	}

	if r.opts.BreakerDisabled {
		return r.retry(ctx, op, fn, classify)
	}
	_, err := r.breaker(op, classify).Execute(func() (any, error) {
		return nil, r.retry(ctx, op, fn, classify)
	})
	return err
}

func (r *Runner) retry(ctx context.Context, op string, fn func(context.Context) error, classify Classifier) error {
	delay := r.opts.BaseDelay
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if verdict := classify(err); !verdict.Retry || attempt == r.opts.Attempts {
			return err
		}

		wait := delay
		if wait > r.opts.MaxDelay {
			wait = r.opts.MaxDelay
		}
		slog.Warn("retry_attempt",
			"operation", op,
			"attempt", attempt,
			"max_attempts", r.opts.Attempts,
			"backoff_ms", float64(wait.Microseconds())/1000.0,
			"error", err,
		)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * r.opts.Growth)
	}
}

func (r *Runner) breaker(op string, classify Classifier) *gobreaker.CircuitBreaker[any] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[op]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        op,
		MaxRequests: r.opts.BreakerProbeCalls,
		Timeout:     r.opts.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < r.opts.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= r.opts.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classify(err).CountsAsDip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	})
	r.breakers[op] = cb
	return cb
}

// IsCircuitOpen reports that the breaker, not the callee, rejected the call.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
