package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultAPIAddr is used when the config file does not set api_addr.
	DefaultAPIAddr = "0.0.0.0:8090"

	// DefaultStoragePath is used when the config file does not set storage_path.
	DefaultStoragePath = ".mwd.db"

	configFileMode = 0o644
)

// skeletonConfig is written by 'mwd init' as a starting point.
const skeletonConfig = `# mwd configuration.

api_addr = "0.0.0.0:8090"
storage_path = ".mwd.db"

# [[targets]]
# id = "openai/gpt-4o-mini"
# provider = "openai"
# endpoint = "https://api.openai.com/v1/chat/completions"
# model = "gpt-4o-mini"
# checks = ["basic_connectivity", "response_quality"]

# [providers.openai]
# api_key_env = "OPENAI_API_KEY"

# [checks.basic_connectivity]
# interval = "30s"
# timeout = "5s"
# max_retries = 1

# [thresholds]
# uptime_warning = 0.98
# uptime_critical = 0.95
`

// Init creates the base skeleton configuration file for the mwd project.
func (d *DefaultLoader) Init(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(skeletonConfig), configFileMode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// Load reads, decodes and validates the configuration file at path.
func (d *DefaultLoader) Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: path cannot be empty", ErrConfigLoadFailed)
	}

	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: config file cannot be found, run: 'mwd init'", ErrConfigLoadFailed)
		}
		return nil, fmt.Errorf("%w: failed to stat config file (%s): %w", ErrConfigLoadFailed, path, err)
	}

	var cfg *Config
	_, err = toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode config from file (%s): %w", ErrConfigLoadFailed, path, err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: config file is empty (%s)", ErrConfigLoadFailed, path)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: failed to validate config (%s): %w", ErrConfigLoadFailed, path, err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.APIAddr) == "" {
		c.APIAddr = DefaultAPIAddr
	}
	if strings.TrimSpace(c.StoragePath) == "" {
		c.StoragePath = DefaultStoragePath
	}
}

// validate orchestrates validation of configuration structure.
func (c *Config) validate() error {
	if err := c.validateTargets(); err != nil {
		return err
	}

	for name, entry := range c.Checks {
		if entry.Interval < 0 || entry.Timeout < 0 {
			return fmt.Errorf("check '%s': interval and timeout must not be negative", name)
		}
		if entry.MaxRetries != nil && *entry.MaxRetries < 0 {
			return fmt.Errorf("check '%s': max_retries must not be negative", name)
		}
	}

	if c.Thresholds != nil {
		if err := c.AlertThresholds().Validate(); err != nil {
			return fmt.Errorf("threshold configuration error: %w", err)
		}
	}

	return nil
}

// validateTargets ensures every target entry is complete and ids are distinct.
func (c *Config) validateTargets() error {
	seen := map[string]struct{}{}

	for _, entry := range c.Targets {
		if strings.TrimSpace(entry.ID) == "" {
			return fmt.Errorf("target entry has empty id")
		}
		if _, ok := seen[entry.ID]; ok {
			return fmt.Errorf("duplicate target id '%s'", entry.ID)
		}
		seen[entry.ID] = struct{}{}

		if strings.TrimSpace(entry.Provider) == "" {
			return fmt.Errorf("target '%s' has empty provider", entry.ID)
		}
		if strings.TrimSpace(entry.Endpoint) == "" {
			return fmt.Errorf("target '%s' has empty endpoint", entry.ID)
		}
		if strings.TrimSpace(entry.Model) == "" {
			return fmt.Errorf("target '%s' has empty model", entry.ID)
		}
	}

	return nil
}
