package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	rootCmd := NewRootCmd()

	require.Equal(t, "mwd <command> [args]", rootCmd.Use)
	require.Equal(t, version, rootCmd.Version)

	names := make([]string, 0, len(rootCmd.Commands()))
	for _, sub := range rootCmd.Commands() {
		names = append(names, sub.Name())
	}
	require.Contains(t, names, "daemon")
	require.Contains(t, names, "init")
	require.Contains(t, names, "report")

	// Global flags are registered on the root command.
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config-file"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("log-level"))
}
