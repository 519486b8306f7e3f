package probe

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/modelwatch/mwd/internal/domain"
	mwderrors "github.com/modelwatch/mwd/internal/errors"
)

// scriptedCapability fails a fixed number of times before succeeding.
type scriptedCapability struct {
	calls        atomic.Int32
	failuresLeft int32
	delay        time.Duration
}

func (c *scriptedCapability) Probe(ctx context.Context, _ domain.Target) (map[string]any, error) {
	n := c.calls.Add(1)
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if n <= c.failuresLeft {
		return nil, errors.New("synthetic probe failure")
	}
	return map[string]any{"ok": true}, nil
}

type blockingLimiter struct {
	acquired atomic.Int32
}

func (l *blockingLimiter) Acquire(_ context.Context, _ string) error {
	l.acquired.Add(1)
	return nil
}

func testDefinition(timeout time.Duration, maxRetries int) domain.CheckDefinition {
	return domain.CheckDefinition{
		Name:       domain.CheckBasicConnectivity,
		Interval:   time.Minute,
		Timeout:    timeout,
		MaxRetries: maxRetries,
	}
}

func newTestExecutor(opt ...ExecutorOption) *Executor {
	opts := append([]ExecutorOption{WithRetryBackoff(time.Millisecond)}, opt...)
	return NewExecutor(hclog.NewNullLogger(), opts...)
}

func TestExecutor_FirstAttemptSucceeds(t *testing.T) {
	t.Parallel()

	e := newTestExecutor()
	capability := &scriptedCapability{}

	result := e.Run(context.Background(), testDefinition(time.Second, 2), capability, domain.Target{ID: "t1"})

	require.True(t, result.Success)
	require.Equal(t, 0, result.RetryCount)
	require.Empty(t, result.Err)
	require.Equal(t, domain.CheckBasicConnectivity, result.CheckName)
	require.EqualValues(t, 1, capability.calls.Load())
	require.Equal(t, map[string]any{"ok": true}, result.Details)
}

func TestExecutor_RetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	e := newTestExecutor()
	capability := &scriptedCapability{failuresLeft: 2}

	result := e.Run(context.Background(), testDefinition(time.Second, 2), capability, domain.Target{ID: "t1"})

	require.True(t, result.Success)
	require.Equal(t, 2, result.RetryCount)
	require.EqualValues(t, 3, capability.calls.Load())
}

func TestExecutor_AllAttemptsFail(t *testing.T) {
	t.Parallel()

	e := newTestExecutor()
	capability := &scriptedCapability{failuresLeft: 100}

	result := e.Run(context.Background(), testDefinition(time.Second, 2), capability, domain.Target{ID: "t1"})

	require.False(t, result.Success)
	require.Equal(t, 2, result.RetryCount)
	require.Contains(t, result.Err, "synthetic probe failure")
	require.EqualValues(t, 3, capability.calls.Load())
}

func TestExecutor_TimeoutCountsAsFailure(t *testing.T) {
	t.Parallel()

	e := newTestExecutor()
	// Probe takes 500ms, timeout is 20ms: every attempt loses the race.
	capability := &scriptedCapability{delay: 500 * time.Millisecond}

	result := e.Run(context.Background(), testDefinition(20*time.Millisecond, 1), capability, domain.Target{ID: "t1"})

	require.False(t, result.Success)
	require.Contains(t, result.Err, mwderrors.ErrProbeTimeout.Error())
	require.Equal(t, 20*time.Millisecond, result.ResponseTime)
}

func TestExecutor_TimeoutDoesNotCancelInFlightProbe(t *testing.T) {
	t.Parallel()

	e := newTestExecutor()
	capability := &scriptedCapability{delay: 50 * time.Millisecond}

	_ = e.Run(context.Background(), testDefinition(10*time.Millisecond, 0), capability, domain.Target{ID: "t1"})

	// The abandoned attempt keeps running to completion.
	require.Eventually(t, func() bool {
		return capability.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestExecutor_ConsultsRateLimiterPerAttempt(t *testing.T) {
	t.Parallel()

	limiter := &blockingLimiter{}
	e := newTestExecutor(WithRateLimiter(limiter))
	capability := &scriptedCapability{failuresLeft: 1}

	result := e.Run(context.Background(), testDefinition(time.Second, 1), capability, domain.Target{ID: "t1", Provider: "acme"})

	require.True(t, result.Success)
	require.EqualValues(t, 2, limiter.acquired.Load())
}
