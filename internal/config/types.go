// Package config loads and validates the .mwd.toml configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/modelwatch/mwd/internal/alert"
	"github.com/modelwatch/mwd/internal/domain"
	"github.com/modelwatch/mwd/internal/probe"
)

var _ Provider = (*DefaultLoader)(nil)

// Loader loads a configuration file from disk.
type Loader interface {
	Load(path string) (*Config, error)
}

// Initializer creates a skeleton configuration file.
type Initializer interface {
	Init(path string) error
}

// Provider combines loading and initialization.
type Provider interface {
	Initializer
	Loader
}

// DefaultLoader is the file-backed Provider implementation.
type DefaultLoader struct{}

// Config represents the .mwd.toml file structure.
type Config struct {
	// APIAddr is the listen address of the HTTP API.
	APIAddr string `toml:"api_addr"`

	// StoragePath is the SQLite database file for the session history.
	StoragePath string `toml:"storage_path"`

	// Targets are the endpoints monitored automatically at daemon startup.
	Targets []TargetEntry `toml:"targets"`

	// Checks overrides built-in check schedules, keyed by check name.
	Checks map[string]CheckEntry `toml:"checks"`

	// Thresholds overrides the default alert thresholds.
	Thresholds *ThresholdEntry `toml:"thresholds"`

	// Providers configures per-provider credentials, keyed by provider name.
	Providers map[string]ProviderEntry `toml:"providers"`
}

// TargetEntry represents one monitored model endpoint.
type TargetEntry struct {
	// ID is the unique name for the target, e.g. 'openai/gpt-4o-mini'.
	ID string `toml:"id"`

	// Provider names the hosting provider, used for credential lookup.
	Provider string `toml:"provider"`

	// Endpoint is the chat completion URL probes are sent to.
	Endpoint string `toml:"endpoint"`

	// Model is the model identifier sent in probe requests.
	Model string `toml:"model"`

	// Checks lists the health checks to schedule. Empty selects all.
	Checks []string `toml:"checks,omitempty"`
}

// Target converts the entry to its domain form.
func (e TargetEntry) Target() domain.Target {
	return domain.Target{
		ID:       e.ID,
		Provider: e.Provider,
		Endpoint: e.Endpoint,
		Model:    e.Model,
	}
}

// CheckEntry overrides the schedule of a built-in health check.
type CheckEntry struct {
	Interval   Duration `toml:"interval,omitempty"`
	Timeout    Duration `toml:"timeout,omitempty"`
	MaxRetries *int     `toml:"max_retries,omitempty"`
}

// ProviderEntry configures access to one provider.
type ProviderEntry struct {
	// APIKeyEnv names the environment variable holding the bearer token.
	// Keys never live in the config file itself.
	APIKeyEnv string `toml:"api_key_env"`
}

// ThresholdEntry overrides alert thresholds. Zero-valued fields keep their
// defaults.
type ThresholdEntry struct {
	UptimeWarning               float64  `toml:"uptime_warning,omitempty"`
	UptimeCritical              float64  `toml:"uptime_critical,omitempty"`
	ResponseTimeWarning         Duration `toml:"response_time_warning,omitempty"`
	ResponseTimeCritical        Duration `toml:"response_time_critical,omitempty"`
	ErrorRateWarning            float64  `toml:"error_rate_warning,omitempty"`
	ErrorRateCritical           float64  `toml:"error_rate_critical,omitempty"`
	ConsecutiveFailuresWarning  int      `toml:"consecutive_failures_warning,omitempty"`
	ConsecutiveFailuresCritical int      `toml:"consecutive_failures_critical,omitempty"`
}

// Duration is a time.Duration that unmarshals from TOML strings like "30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// ProbeOverrides converts the check entries into catalog overrides.
func (c *Config) ProbeOverrides() map[string]probe.Override {
	if len(c.Checks) == 0 {
		return nil
	}

	overrides := make(map[string]probe.Override, len(c.Checks))
	for name, entry := range c.Checks {
		overrides[name] = probe.Override{
			Interval:   time.Duration(entry.Interval),
			Timeout:    time.Duration(entry.Timeout),
			MaxRetries: entry.MaxRetries,
		}
	}
	return overrides
}

// AlertThresholds returns the configured thresholds, falling back to the
// defaults for any field left unset.
func (c *Config) AlertThresholds() alert.Thresholds {
	t := alert.DefaultThresholds()
	e := c.Thresholds
	if e == nil {
		return t
	}

	if e.UptimeWarning > 0 {
		t.UptimeWarning = e.UptimeWarning
	}
	if e.UptimeCritical > 0 {
		t.UptimeCritical = e.UptimeCritical
	}
	if e.ResponseTimeWarning > 0 {
		t.ResponseTimeWarning = time.Duration(e.ResponseTimeWarning)
	}
	if e.ResponseTimeCritical > 0 {
		t.ResponseTimeCritical = time.Duration(e.ResponseTimeCritical)
	}
	if e.ErrorRateWarning > 0 {
		t.ErrorRateWarning = e.ErrorRateWarning
	}
	if e.ErrorRateCritical > 0 {
		t.ErrorRateCritical = e.ErrorRateCritical
	}
	if e.ConsecutiveFailuresWarning > 0 {
		t.ConsecutiveFailuresWarning = e.ConsecutiveFailuresWarning
	}
	if e.ConsecutiveFailuresCritical > 0 {
		t.ConsecutiveFailuresCritical = e.ConsecutiveFailuresCritical
	}

	return t
}

// APIKeys resolves configured provider credentials from the environment.
// Providers whose variable is unset or empty are omitted.
func (c *Config) APIKeys() map[string]string {
	if len(c.Providers) == 0 {
		return nil
	}

	keys := make(map[string]string, len(c.Providers))
	for provider, entry := range c.Providers {
		if entry.APIKeyEnv == "" {
			continue
		}
		if key := os.Getenv(entry.APIKeyEnv); key != "" {
			keys[provider] = key
		}
	}
	return keys
}
