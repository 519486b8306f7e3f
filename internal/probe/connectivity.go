package probe

import (
	"context"
	"fmt"

	"github.com/modelwatch/mwd/internal/contracts"
	"github.com/modelwatch/mwd/internal/domain"
)

// connectivityCheck issues one minimal completion request and only asks
// whether the target answered it at all.
type connectivityCheck struct {
	backend contracts.ProbeBackend
}

func (c *connectivityCheck) Probe(ctx context.Context, target domain.Target) (map[string]any, error) {
	obs, err := c.backend.Execute(ctx, target, domain.ProbeSpec{
		Kind:      domain.ProbeRequestMinimal,
		Prompt:    "ping",
		MaxTokens: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("connectivity probe failed: %w", err)
	}
	if !obs.OK() {
		return nil, fmt.Errorf("connectivity probe answered status %d", obs.StatusCode)
	}

	return map[string]any{
		"statusCode": obs.StatusCode,
	}, nil
}
