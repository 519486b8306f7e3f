package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/modelwatch/mwd/internal/domain"
)

func targetFor(server *httptest.Server) domain.Target {
	return domain.Target{
		ID:       "acme/model-1",
		Provider: "acme",
		Endpoint: server.URL + "/v1/chat/completions",
		Model:    "model-1",
	}
}

func TestHTTPBackend_Execute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		spec        domain.ProbeSpec
		wantContent string
		wantTokens  float64
	}{
		{
			name:        "minimal request pings with a single token",
			spec:        domain.ProbeSpec{Kind: domain.ProbeRequestMinimal},
			wantContent: "ping",
			wantTokens:  1,
		},
		{
			name:        "completion request carries the prompt",
			spec:        domain.ProbeSpec{Kind: domain.ProbeRequestCompletion, Prompt: "What is 2+2?", MaxTokens: 50},
			wantContent: "What is 2+2?",
			wantTokens:  50,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var got map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPost, r.Method)
				require.Equal(t, "application/json", r.Header.Get("Content-Type"))
				require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				require.NoError(t, json.Unmarshal(body, &got))

				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"4"}}]}`))
			}))
			t.Cleanup(server.Close)

			b, err := NewHTTPBackend(hclog.NewNullLogger(),
				WithClient(server.Client()),
				WithAPIKeys(map[string]string{"acme": "sk-test"}),
			)
			require.NoError(t, err)

			obs, err := b.Execute(context.Background(), targetFor(server), tc.spec)
			require.NoError(t, err)
			require.True(t, obs.OK())
			require.Contains(t, string(obs.Payload), "choices")

			require.Equal(t, "model-1", got["model"])
			require.Equal(t, tc.wantTokens, got["max_tokens"])
			messages := got["messages"].([]any)
			require.Len(t, messages, 1)
			require.Equal(t, tc.wantContent, messages[0].(map[string]any)["content"])
		})
	}
}

func TestHTTPBackend_ExecuteInvalidKindSendsMalformedBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		// The messages field is not a list, which a conforming endpoint
		// rejects as a bad request.
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(body, &decoded))
		if _, ok := decoded["messages"].([]any); !ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"messages must be a list"}}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	b, err := NewHTTPBackend(hclog.NewNullLogger(), WithClient(server.Client()))
	require.NoError(t, err)

	obs, err := b.Execute(context.Background(), targetFor(server), domain.ProbeSpec{Kind: domain.ProbeRequestInvalid})
	require.NoError(t, err)
	require.True(t, obs.Rejected())
	require.False(t, obs.OK())
}

func TestHTTPBackend_ExecuteWithoutAPIKeyOmitsAuthorization(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	b, err := NewHTTPBackend(hclog.NewNullLogger(), WithClient(server.Client()))
	require.NoError(t, err)

	obs, err := b.Execute(context.Background(), targetFor(server), domain.ProbeSpec{Kind: domain.ProbeRequestMinimal})
	require.NoError(t, err)
	require.True(t, obs.OK())
}

func TestHTTPBackend_ExecuteStatusPassthrough(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	b, err := NewHTTPBackend(hclog.NewNullLogger(), WithClient(server.Client()))
	require.NoError(t, err)

	obs, err := b.Execute(context.Background(), targetFor(server), domain.ProbeSpec{Kind: domain.ProbeRequestMinimal})
	require.NoError(t, err)
	require.Equal(t, http.StatusTooManyRequests, obs.StatusCode)
	require.True(t, obs.Rejected())
}

func TestHTTPBackend_ExecuteTransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	target := targetFor(server)
	server.Close()

	b, err := NewHTTPBackend(hclog.NewNullLogger())
	require.NoError(t, err)

	_, err = b.Execute(context.Background(), target, domain.ProbeSpec{Kind: domain.ProbeRequestMinimal})
	require.Error(t, err)
	require.Contains(t, err.Error(), "request to acme/model-1 failed")
}

func TestHTTPBackend_ExecuteHonorsContext(t *testing.T) {
	t.Parallel()

	b, err := NewHTTPBackend(hclog.NewNullLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = b.Execute(ctx, domain.Target{ID: "acme/model-1", Endpoint: "http://127.0.0.1:1/v1/chat"}, domain.ProbeSpec{Kind: domain.ProbeRequestMinimal})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewHTTPBackend_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewHTTPBackend(nil)
	require.Error(t, err)

	_, err = NewHTTPBackend(hclog.NewNullLogger(), WithClient(nil))
	require.Error(t, err)
}
