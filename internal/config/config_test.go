package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/modelwatch/mwd/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".mwd.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestDefaultLoader_Load(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
api_addr = "127.0.0.1:9000"
storage_path = "/var/lib/mwd/history.db"

[[targets]]
id = "openai/gpt-4o-mini"
provider = "openai"
endpoint = "https://api.openai.com/v1/chat/completions"
model = "gpt-4o-mini"
checks = ["basic_connectivity", "response_quality"]

[checks.basic_connectivity]
interval = "30s"
timeout = "5s"
max_retries = 1

[thresholds]
uptime_warning = 0.99
uptime_critical = 0.97

[providers.openai]
api_key_env = "OPENAI_API_KEY"
`)

	cfg, err := (&DefaultLoader{}).Load(path)
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:9000", cfg.APIAddr)
	require.Equal(t, "/var/lib/mwd/history.db", cfg.StoragePath)

	require.Len(t, cfg.Targets, 1)
	require.Equal(t, domain.Target{
		ID:       "openai/gpt-4o-mini",
		Provider: "openai",
		Endpoint: "https://api.openai.com/v1/chat/completions",
		Model:    "gpt-4o-mini",
	}, cfg.Targets[0].Target())
	require.Equal(t, []string{"basic_connectivity", "response_quality"}, cfg.Targets[0].Checks)

	overrides := cfg.ProbeOverrides()
	require.Len(t, overrides, 1)
	require.Equal(t, 30*time.Second, overrides["basic_connectivity"].Interval)
	require.Equal(t, 5*time.Second, overrides["basic_connectivity"].Timeout)
	require.NotNil(t, overrides["basic_connectivity"].MaxRetries)
	require.Equal(t, 1, *overrides["basic_connectivity"].MaxRetries)

	// Configured threshold fields override the defaults, the rest stay.
	thresholds := cfg.AlertThresholds()
	require.Equal(t, 0.99, thresholds.UptimeWarning)
	require.Equal(t, 0.97, thresholds.UptimeCritical)
	require.Equal(t, 10*time.Second, thresholds.ResponseTimeWarning)
	require.Equal(t, 3, thresholds.ConsecutiveFailuresWarning)
}

func TestDefaultLoader_LoadAppliesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[[targets]]
id = "acme/model-1"
provider = "acme"
endpoint = "https://api.acme.test/v1/chat"
model = "model-1"
`)

	cfg, err := (&DefaultLoader{}).Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultAPIAddr, cfg.APIAddr)
	require.Equal(t, DefaultStoragePath, cfg.StoragePath)
}

func TestDefaultLoader_LoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "empty file",
			content: "",
			wantErr: "config file is empty",
		},
		{
			name: "duplicate target ids",
			content: `
[[targets]]
id = "acme/model-1"
provider = "acme"
endpoint = "https://api.acme.test/v1/chat"
model = "model-1"

[[targets]]
id = "acme/model-1"
provider = "acme"
endpoint = "https://api.acme.test/v1/chat"
model = "model-1"
`,
			wantErr: "duplicate target id",
		},
		{
			name: "target missing endpoint",
			content: `
[[targets]]
id = "acme/model-1"
provider = "acme"
model = "model-1"
`,
			wantErr: "empty endpoint",
		},
		{
			name: "unparseable duration",
			content: `
[checks.basic_connectivity]
interval = "half an hour"
`,
			wantErr: "invalid duration",
		},
		{
			name: "negative retries",
			content: `
[checks.basic_connectivity]
max_retries = -1
`,
			wantErr: "max_retries must not be negative",
		},
		{
			name: "inverted uptime thresholds",
			content: `
[thresholds]
uptime_warning = 0.90
uptime_critical = 0.95
`,
			wantErr: "threshold configuration error",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := (&DefaultLoader{}).Load(writeConfig(t, tc.content))
			require.ErrorIs(t, err, ErrConfigLoadFailed)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestDefaultLoader_LoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := (&DefaultLoader{}).Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.ErrorIs(t, err, ErrConfigLoadFailed)
	require.Contains(t, err.Error(), "mwd init")

	_, err = (&DefaultLoader{}).Load("  ")
	require.ErrorIs(t, err, ErrConfigLoadFailed)
}

func TestDefaultLoader_Init(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".mwd.toml")
	loader := &DefaultLoader{}

	require.NoError(t, loader.Init(path))

	// The skeleton loads cleanly.
	cfg, err := loader.Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultAPIAddr, cfg.APIAddr)
	require.Empty(t, cfg.Targets)

	// A second init must not clobber the file.
	require.ErrorContains(t, loader.Init(path), "already exists")
}

func TestConfig_APIKeys(t *testing.T) {
	t.Setenv("MWD_TEST_ACME_KEY", "sk-acme")
	t.Setenv("MWD_TEST_EMPTY_KEY", "")

	cfg := &Config{
		Providers: map[string]ProviderEntry{
			"acme":  {APIKeyEnv: "MWD_TEST_ACME_KEY"},
			"empty": {APIKeyEnv: "MWD_TEST_EMPTY_KEY"},
			"bare":  {},
		},
	}

	keys := cfg.APIKeys()
	require.Equal(t, map[string]string{"acme": "sk-acme"}, keys)
}

func TestConfig_AlertThresholdsDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	require.NoError(t, cfg.AlertThresholds().Validate())
	require.Equal(t, 0.98, cfg.AlertThresholds().UptimeWarning)
	require.Nil(t, cfg.ProbeOverrides())
}
