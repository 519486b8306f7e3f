package cmd

import (
	"github.com/spf13/cobra"

	"github.com/modelwatch/mwd/internal/cmd"
	"github.com/modelwatch/mwd/internal/flags"
)

var version = "dev" // Set at build time using -ldflags

// RootCmd should be used to represent the root 'mwd' command.
type RootCmd struct {
	*cmd.BaseCmd
}

// Execute builds the command tree and runs the selected command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd creates a newly configured (Cobra) root command.
func NewRootCmd() *cobra.Command {
	c := &RootCmd{
		BaseCmd: &cmd.BaseCmd{},
	}

	rootCmd := &cobra.Command{
		Use:          "mwd <command> [args]",
		Short:        "'mwd' continuously monitors the reliability of AI model provider endpoints.",
		Long:         c.longDescription(),
		SilenceUsage: true,
		Version:      version,
	}

	// Global flags
	flags.InitFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(NewInitCmd(c.BaseCmd))
	rootCmd.AddCommand(NewDaemonCmd(c.BaseCmd))
	rootCmd.AddCommand(NewReportCmd(c.BaseCmd))

	return rootCmd
}

func (c *RootCmd) longDescription() string {
	return `The 'mwd' daemon schedules recurring health checks against AI model provider
endpoints, accumulates per-session reliability metrics, raises alerts on
threshold violations and persists finished sessions for trend reporting.`
}
