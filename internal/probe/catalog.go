// Package probe contains the health check catalog, the probe capability
// variants and the executor that runs one check with retries and a per
// attempt timeout race.
package probe

import (
	"fmt"
	"time"

	"github.com/modelwatch/mwd/internal/contracts"
	"github.com/modelwatch/mwd/internal/domain"
	"github.com/modelwatch/mwd/internal/errors"
)

// Override adjusts the schedule of a built-in check. Zero values leave the
// default in place.
type Override struct {
	Interval   time.Duration
	Timeout    time.Duration
	MaxRetries *int
}

// Catalog is the static registry of check definitions and their probe
// capabilities. Built once from configuration, read-only afterwards.
// NewCatalog should be used to create instances of Catalog.
type Catalog struct {
	defs map[string]domain.CheckDefinition
	caps map[string]Capability
}

// NewCatalog registers the built-in checks against the given probe backend,
// applying any per-check schedule overrides. Overriding an unknown check name
// is a configuration error.
func NewCatalog(backend contracts.ProbeBackend, overrides map[string]Override) (*Catalog, error) {
	quality, err := newQualityCheck(backend)
	if err != nil {
		return nil, fmt.Errorf("failed to build response quality check: %w", err)
	}

	c := &Catalog{
		defs: map[string]domain.CheckDefinition{
			domain.CheckBasicConnectivity: {
				Name:        domain.CheckBasicConnectivity,
				DisplayName: "Basic Connectivity",
				Interval:    60 * time.Second,
				Timeout:     10 * time.Second,
				MaxRetries:  2,
			},
			domain.CheckResponseQuality: {
				Name:        domain.CheckResponseQuality,
				DisplayName: "Response Quality",
				Interval:    300 * time.Second,
				Timeout:     30 * time.Second,
				MaxRetries:  1,
			},
			domain.CheckLoadCapacity: {
				Name:        domain.CheckLoadCapacity,
				DisplayName: "Load Capacity",
				Interval:    600 * time.Second,
				Timeout:     60 * time.Second,
				MaxRetries:  0,
			},
			domain.CheckErrorHandling: {
				Name:        domain.CheckErrorHandling,
				DisplayName: "Error Handling",
				Interval:    900 * time.Second,
				Timeout:     15 * time.Second,
				MaxRetries:  1,
			},
		},
		caps: map[string]Capability{
			domain.CheckBasicConnectivity: &connectivityCheck{backend: backend},
			domain.CheckResponseQuality:   quality,
			domain.CheckLoadCapacity:      &loadCheck{backend: backend},
			domain.CheckErrorHandling:     &errorHandlingCheck{backend: backend},
		},
	}

	for name, o := range overrides {
		def, ok := c.defs[name]
		if !ok {
			return nil, fmt.Errorf("%w: cannot override %q", errors.ErrUnknownCheck, name)
		}
		if o.Interval > 0 {
			def.Interval = o.Interval
		}
		if o.Timeout > 0 {
			def.Timeout = o.Timeout
		}
		if o.MaxRetries != nil {
			if *o.MaxRetries < 0 {
				return nil, fmt.Errorf("%w: max retries for %q must not be negative", errors.ErrBadRequest, name)
			}
			def.MaxRetries = *o.MaxRetries
		}
		c.defs[name] = def
	}

	return c, nil
}

// Definition returns the check definition for the given name.
func (c *Catalog) Definition(name string) (domain.CheckDefinition, error) {
	def, ok := c.defs[name]
	if !ok {
		return domain.CheckDefinition{}, fmt.Errorf("%w: %q", errors.ErrUnknownCheck, name)
	}
	return def, nil
}

// Capability returns the probe capability for the given check name.
func (c *Catalog) Capability(name string) (Capability, error) {
	capability, ok := c.caps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownCheck, name)
	}
	return capability, nil
}

// Names returns the registered check names.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.defs))
	for name := range c.defs {
		names = append(names, name)
	}
	return names
}
