package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/modelwatch/mwd/internal/contracts"
	"github.com/modelwatch/mwd/internal/domain"
	"github.com/modelwatch/mwd/internal/errors"
)

// DefaultRetryBackoff is the pause between failed attempts.
const DefaultRetryBackoff = 2 * time.Second

// Executor runs one health check: up to MaxRetries+1 attempts, each racing
// the capability against the check's timeout. A timed out attempt abandons
// the wait but never cancels the in-flight request.
// NewExecutor should be used to create instances of Executor.
type Executor struct {
	logger  hclog.Logger
	limiter contracts.RateLimiter
	backoff time.Duration
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRateLimiter installs a rate limiter consulted before every attempt.
func WithRateLimiter(l contracts.RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.limiter = l
	}
}

// WithRetryBackoff overrides the pause between failed attempts.
func WithRetryBackoff(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.backoff = d
		}
	}
}

// NewExecutor creates an Executor.
func NewExecutor(logger hclog.Logger, opt ...ExecutorOption) *Executor {
	e := &Executor{
		logger:  logger.Named("probe"),
		backoff: DefaultRetryBackoff,
	}
	for _, o := range opt {
		if o != nil {
			o(e)
		}
	}
	return e
}

type attemptOutcome struct {
	details map[string]any
	err     error
}

// Run executes the check against the target and returns the first successful
// result, or a failed result carrying the last error once every attempt has
// been used up. Run never returns an error: probe failures are data, not
// control flow.
func (e *Executor) Run(ctx context.Context, def domain.CheckDefinition, capability Capability, target domain.Target) domain.ProbeResult {
	var (
		lastErr     error
		lastElapsed time.Duration
	)

	attempts := def.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if e.limiter != nil {
			if err := e.limiter.Acquire(ctx, target.Provider); err != nil {
				lastErr = fmt.Errorf("rate limiter wait aborted: %w", err)
				break
			}
		}

		details, elapsed, err := e.attempt(ctx, def, capability, target)
		if err == nil {
			e.logger.Debug("probe succeeded",
				"check", def.Name, "target", target.ID, "attempt", attempt+1, "elapsed", elapsed)
			return domain.ProbeResult{
				CheckName:    def.Name,
				Timestamp:    time.Now().UTC(),
				Success:      true,
				ResponseTime: elapsed,
				RetryCount:   attempt,
				Details:      details,
			}
		}

		lastErr = err
		lastElapsed = elapsed
		e.logger.Debug("probe attempt failed",
			"check", def.Name, "target", target.ID, "attempt", attempt+1, "error", err)

		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			attempt = attempts // stop retrying, the session is shutting down
		case <-time.After(e.backoff):
		}
	}

	e.logger.Warn("probe failed after all attempts",
		"check", def.Name, "target", target.ID, "attempts", attempts, "error", lastErr)

	return domain.ProbeResult{
		CheckName:    def.Name,
		Timestamp:    time.Now().UTC(),
		Success:      false,
		ResponseTime: lastElapsed,
		Err:          lastErr.Error(),
		RetryCount:   attempts - 1,
	}
}

// attempt races one capability execution against the check timeout. On
// timeout only the caller's wait is cancelled; the probe goroutine finishes
// naturally and its buffered channel send never blocks.
func (e *Executor) attempt(ctx context.Context, def domain.CheckDefinition, capability Capability, target domain.Target) (map[string]any, time.Duration, error) {
	outcome := make(chan attemptOutcome, 1)
	start := time.Now()

	go func() {
		details, err := capability.Probe(ctx, target)
		outcome <- attemptOutcome{details: details, err: err}
	}()

	timer := time.NewTimer(def.Timeout)
	defer timer.Stop()

	select {
	case out := <-outcome:
		return out.details, time.Since(start), out.err
	case <-timer.C:
		return nil, def.Timeout, fmt.Errorf("%w: no answer within %s", errors.ErrProbeTimeout, def.Timeout)
	}
}
