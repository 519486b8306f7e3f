package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modelwatch/mwd/internal/cmd"
	"github.com/modelwatch/mwd/internal/flags"
)

func TestInitCmd_CreatesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".mwd.toml")

	prev := flags.ConfigFile
	flags.ConfigFile = path
	t.Cleanup(func() { flags.ConfigFile = prev })

	initCmd := NewInitCmd(&cmd.BaseCmd{})

	var out bytes.Buffer
	initCmd.SetOut(&out)

	require.NoError(t, initCmd.Execute())
	require.FileExists(t, path)
	require.Contains(t, out.String(), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), "api_addr")

	// Running init again must not clobber the existing file.
	initCmd = NewInitCmd(&cmd.BaseCmd{})
	initCmd.SetOut(&out)
	initCmd.SilenceErrors = true
	require.ErrorContains(t, initCmd.Execute(), "already exists")
}
