package probe

import (
	"context"

	"github.com/modelwatch/mwd/internal/domain"
)

// Capability is the pluggable probe behavior of one check type. New check
// types implement Capability without touching the executor or the scheduler.
//
// Probe performs one logical probe against the target and returns check
// specific details on success. The executor adds retries and the timeout
// race; a Capability only decides what "one probe" means and whether its
// outcome counts as healthy.
type Capability interface {
	Probe(ctx context.Context, target domain.Target) (map[string]any, error)
}
