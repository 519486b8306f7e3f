package probe

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/modelwatch/mwd/internal/contracts"
	"github.com/modelwatch/mwd/internal/domain"
)

const (
	// loadSubRequests is the number of concurrent requests one load probe issues.
	loadSubRequests = 5

	// loadSuccessFraction is the fraction of sub-requests that must succeed.
	loadSuccessFraction = 0.8
)

// loadCheck fans out several concurrent minimal requests and requires most of
// them to succeed, approximating the target's behavior under parallel load.
type loadCheck struct {
	backend contracts.ProbeBackend
}

func (c *loadCheck) Probe(ctx context.Context, target domain.Target) (map[string]any, error) {
	var successful atomic.Int64

	// Every sub-request runs to completion; a failed one must not cancel its
	// siblings, so the group never returns an error.
	var g errgroup.Group
	for i := 0; i < loadSubRequests; i++ {
		g.Go(func() error {
			obs, err := c.backend.Execute(ctx, target, domain.ProbeSpec{
				Kind:      domain.ProbeRequestMinimal,
				Prompt:    "ping",
				MaxTokens: 1,
			})
			if err == nil && obs.OK() {
				successful.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	ok := successful.Load()
	details := map[string]any{
		"subRequests": loadSubRequests,
		"successful":  int(ok),
	}

	if float64(ok) < loadSuccessFraction*loadSubRequests {
		return nil, fmt.Errorf("load probe: only %d/%d sub-requests succeeded (need %.0f%%)",
			ok, loadSubRequests, loadSuccessFraction*100)
	}

	return details, nil
}
