// Package backend implements the default probe backend: HTTP requests
// against OpenAI-compatible chat completion endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/modelwatch/mwd/internal/domain"
)

const (
	// maxResponseBytes caps how much of a response body is retained.
	maxResponseBytes = 1 << 20

	// defaultClientTimeout is a transport safety net only; per-check
	// deadlines are enforced by the probe executor.
	defaultClientTimeout = 60 * time.Second
)

// invalidRequestBody is deliberately malformed: messages must be a list and
// token counts must be positive. A healthy endpoint rejects it with a 4xx.
var invalidRequestBody = []byte(`{"model":null,"messages":"garbage","max_tokens":-1}`)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

// Options contains optional configuration for the HTTPBackend.
type Options struct {
	// Client is the HTTP client used for all requests.
	Client *http.Client

	// APIKeys maps provider names to bearer tokens.
	APIKeys map[string]string
}

// Option defines a functional option for configuring Options.
type Option func(*Options) error

// WithClient overrides the HTTP client.
func WithClient(c *http.Client) Option {
	return func(o *Options) error {
		if c == nil {
			return fmt.Errorf("client cannot be nil")
		}
		o.Client = c
		return nil
	}
}

// WithAPIKeys sets the per-provider bearer tokens.
func WithAPIKeys(keys map[string]string) Option {
	return func(o *Options) error {
		o.APIKeys = keys
		return nil
	}
}

func defaultOptions() Options {
	return Options{
		Client: &http.Client{Timeout: defaultClientTimeout},
	}
}

// HTTPBackend issues chat completion requests over HTTP.
// NewHTTPBackend should be used to create instances of HTTPBackend.
//
// A returned error means the request never produced a response at the
// transport level; any protocol answer, including rejections and server
// errors, comes back as an Observation.
type HTTPBackend struct {
	logger  hclog.Logger
	client  *http.Client
	apiKeys map[string]string
}

// NewHTTPBackend creates an HTTPBackend.
func NewHTTPBackend(logger hclog.Logger, opt ...Option) (*HTTPBackend, error) {
	if logger == nil || reflect.ValueOf(logger).IsNil() {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	opts := defaultOptions()
	for _, o := range opt {
		if o == nil {
			continue
		}
		if err := o(&opts); err != nil {
			return nil, err
		}
	}

	return &HTTPBackend{
		logger:  logger.Named("backend"),
		client:  opts.Client,
		apiKeys: opts.APIKeys,
	}, nil
}

// Execute issues a single request described by spec against the target.
func (b *HTTPBackend) Execute(ctx context.Context, target domain.Target, spec domain.ProbeSpec) (domain.Observation, error) {
	body, err := requestBody(target, spec)
	if err != nil {
		return domain.Observation{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.Endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Observation{}, fmt.Errorf("failed to build request for %s: %w", target.ID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key, ok := b.apiKeys[target.Provider]; ok && key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("request to %s failed: %w", target.ID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.Observation{}, fmt.Errorf("failed to read response from %s: %w", target.ID, err)
	}

	b.logger.Debug("probe request completed",
		"target", target.ID, "kind", spec.Kind, "status", resp.StatusCode, "bytes", len(payload))

	return domain.Observation{StatusCode: resp.StatusCode, Payload: payload}, nil
}

func requestBody(target domain.Target, spec domain.ProbeSpec) ([]byte, error) {
	switch spec.Kind {
	case domain.ProbeRequestMinimal:
		return json.Marshal(chatRequest{
			Model:     target.Model,
			Messages:  []chatMessage{{Role: "user", Content: "ping"}},
			MaxTokens: 1,
		})
	case domain.ProbeRequestCompletion:
		return json.Marshal(chatRequest{
			Model:     target.Model,
			Messages:  []chatMessage{{Role: "user", Content: spec.Prompt}},
			MaxTokens: spec.MaxTokens,
		})
	case domain.ProbeRequestInvalid:
		return invalidRequestBody, nil
	default:
		return nil, fmt.Errorf("unknown probe request kind: %q", spec.Kind)
	}
}
