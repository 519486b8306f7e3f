package probe

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/modelwatch/mwd/internal/domain"
	mwderrors "github.com/modelwatch/mwd/internal/errors"
)

// fakeBackend answers every request with a fixed observation or error and
// records the specs it was asked to execute.
type fakeBackend struct {
	observation domain.Observation
	err         error
	calls       atomic.Int32
	lastSpec    domain.ProbeSpec
}

func (b *fakeBackend) Execute(_ context.Context, _ domain.Target, spec domain.ProbeSpec) (domain.Observation, error) {
	b.calls.Add(1)
	b.lastSpec = spec
	if b.err != nil {
		return domain.Observation{}, b.err
	}
	return b.observation, nil
}

var validCompletion = []byte(`{"model":"m1","choices":[{"message":{"role":"assistant","content":"I am a language model."}}]}`)

func TestConnectivityCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		backend   *fakeBackend
		wantError bool
	}{
		{
			name:    "healthy target",
			backend: &fakeBackend{observation: domain.Observation{StatusCode: 200, Payload: []byte(`{}`)}},
		},
		{
			name:      "transport failure",
			backend:   &fakeBackend{err: errors.New("connection refused")},
			wantError: true,
		},
		{
			name:      "server error",
			backend:   &fakeBackend{observation: domain.Observation{StatusCode: 503}},
			wantError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := &connectivityCheck{backend: tc.backend}
			details, err := c.Probe(context.Background(), domain.Target{ID: "t1"})

			if tc.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, 200, details["statusCode"])
			require.Equal(t, domain.ProbeRequestMinimal, tc.backend.lastSpec.Kind)
		})
	}
}

func TestQualityCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		backend   *fakeBackend
		wantError string
	}{
		{
			name:    "well formed completion",
			backend: &fakeBackend{observation: domain.Observation{StatusCode: 200, Payload: validCompletion}},
		},
		{
			name:      "payload too short",
			backend:   &fakeBackend{observation: domain.Observation{StatusCode: 200, Payload: []byte(`{}`)}},
			wantError: "too short",
		},
		{
			name: "schema violation empty choices",
			backend: &fakeBackend{observation: domain.Observation{
				StatusCode: 200,
				Payload:    []byte(`{"model":"m1","object":"chat.completion","choices":[]}`),
			}},
			wantError: "schema validation",
		},
		{
			name: "schema violation missing content",
			backend: &fakeBackend{observation: domain.Observation{
				StatusCode: 200,
				Payload:    []byte(`{"model":"m1","choices":[{"message":{"role":"assistant"}}]}`),
			}},
			wantError: "schema validation",
		},
		{
			name: "payload is not json",
			backend: &fakeBackend{observation: domain.Observation{
				StatusCode: 200,
				Payload:    []byte(`<html>service temporarily unavailable</html>`),
			}},
			wantError: "not valid JSON",
		},
		{
			name:      "transport failure",
			backend:   &fakeBackend{err: errors.New("connection reset")},
			wantError: "quality probe failed",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, err := newQualityCheck(tc.backend)
			require.NoError(t, err)

			details, err := c.Probe(context.Background(), domain.Target{ID: "t1"})
			if tc.wantError != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantError)
				return
			}
			require.NoError(t, err)
			require.Equal(t, len(validCompletion), details["payloadBytes"])
			require.Equal(t, domain.ProbeRequestCompletion, tc.backend.lastSpec.Kind)
		})
	}
}

// countingBackend fails the first n requests it sees.
type countingBackend struct {
	failFirst int32
	calls     atomic.Int32
}

func (b *countingBackend) Execute(_ context.Context, _ domain.Target, _ domain.ProbeSpec) (domain.Observation, error) {
	n := b.calls.Add(1)
	if n <= b.failFirst {
		return domain.Observation{}, errors.New("synthetic overload")
	}
	return domain.Observation{StatusCode: 200, Payload: []byte(`{}`)}, nil
}

func TestLoadCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		failFirst int32
		wantError bool
	}{
		{name: "all sub-requests succeed", failFirst: 0},
		{name: "one failure within tolerance", failFirst: 1},
		{name: "two failures below 80 percent", failFirst: 2, wantError: true},
		{name: "all fail", failFirst: 5, wantError: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			backend := &countingBackend{failFirst: tc.failFirst}
			c := &loadCheck{backend: backend}

			details, err := c.Probe(context.Background(), domain.Target{ID: "t1"})

			require.EqualValues(t, loadSubRequests, backend.calls.Load())
			if tc.wantError {
				require.Error(t, err)
				require.Contains(t, err.Error(), "sub-requests succeeded")
				return
			}
			require.NoError(t, err)
			require.Equal(t, loadSubRequests, details["subRequests"])
			require.Equal(t, loadSubRequests-int(tc.failFirst), details["successful"])
		})
	}
}

func TestErrorHandlingCheck_InvertedSemantics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		backend   *fakeBackend
		wantError string
	}{
		{
			name:    "target rejects malformed request",
			backend: &fakeBackend{observation: domain.Observation{StatusCode: 400}},
		},
		{
			name:      "target accepts malformed request",
			backend:   &fakeBackend{observation: domain.Observation{StatusCode: 200, Payload: validCompletion}},
			wantError: "accepted a deliberately malformed request",
		},
		{
			name:      "server error is not a correct rejection",
			backend:   &fakeBackend{observation: domain.Observation{StatusCode: 500}},
			wantError: "instead of rejecting",
		},
		{
			name:      "transport failure",
			backend:   &fakeBackend{err: errors.New("connection refused")},
			wantError: "transport level",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := &errorHandlingCheck{backend: tc.backend}
			details, err := c.Probe(context.Background(), domain.Target{ID: "t1"})

			if tc.wantError != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantError)
				return
			}
			require.NoError(t, err)
			require.Equal(t, true, details["rejected"])
			require.Equal(t, domain.ProbeRequestInvalid, tc.backend.lastSpec.Kind)
		})
	}
}

func TestNewCatalog(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{observation: domain.Observation{StatusCode: 200}}

	t.Run("built-in checks registered", func(t *testing.T) {
		t.Parallel()

		c, err := NewCatalog(backend, nil)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{
			domain.CheckBasicConnectivity,
			domain.CheckResponseQuality,
			domain.CheckLoadCapacity,
			domain.CheckErrorHandling,
		}, c.Names())

		def, err := c.Definition(domain.CheckBasicConnectivity)
		require.NoError(t, err)
		require.Equal(t, 2, def.MaxRetries)

		capability, err := c.Capability(domain.CheckLoadCapacity)
		require.NoError(t, err)
		require.NotNil(t, capability)
	})

	t.Run("unknown check", func(t *testing.T) {
		t.Parallel()

		c, err := NewCatalog(backend, nil)
		require.NoError(t, err)

		_, err = c.Definition("no_such_check")
		require.ErrorIs(t, err, mwderrors.ErrUnknownCheck)

		_, err = c.Capability("no_such_check")
		require.ErrorIs(t, err, mwderrors.ErrUnknownCheck)
	})

	t.Run("overrides applied", func(t *testing.T) {
		t.Parallel()

		retries := 5
		c, err := NewCatalog(backend, map[string]Override{
			domain.CheckBasicConnectivity: {Interval: time.Second, MaxRetries: &retries},
		})
		require.NoError(t, err)

		def, err := c.Definition(domain.CheckBasicConnectivity)
		require.NoError(t, err)
		require.Equal(t, time.Second, def.Interval)
		require.Equal(t, 5, def.MaxRetries)
		// Unset override fields keep the default.
		require.Equal(t, 10*time.Second, def.Timeout)
	})

	t.Run("override for unknown check", func(t *testing.T) {
		t.Parallel()

		_, err := NewCatalog(backend, map[string]Override{"bogus": {Interval: time.Second}})
		require.ErrorIs(t, err, mwderrors.ErrUnknownCheck)
	})
}
