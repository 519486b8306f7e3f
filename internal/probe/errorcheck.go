package probe

import (
	"context"
	"fmt"

	"github.com/modelwatch/mwd/internal/contracts"
	"github.com/modelwatch/mwd/internal/domain"
)

// errorHandlingCheck issues a deliberately malformed request. The check
// passes precisely when the target correctly rejects it: accepting garbage
// is a failure, and so is a server-side error.
type errorHandlingCheck struct {
	backend contracts.ProbeBackend
}

func (c *errorHandlingCheck) Probe(ctx context.Context, target domain.Target) (map[string]any, error) {
	obs, err := c.backend.Execute(ctx, target, domain.ProbeSpec{
		Kind: domain.ProbeRequestInvalid,
	})
	if err != nil {
		return nil, fmt.Errorf("error handling probe failed at transport level: %w", err)
	}

	switch {
	case obs.Rejected():
		return map[string]any{
			"statusCode": obs.StatusCode,
			"rejected":   true,
		}, nil
	case obs.OK():
		return nil, fmt.Errorf("error handling probe: target accepted a deliberately malformed request")
	default:
		return nil, fmt.Errorf("error handling probe: target answered status %d instead of rejecting", obs.StatusCode)
	}
}
