package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/modelwatch/mwd/internal/cmd"
	"github.com/modelwatch/mwd/internal/config"
	"github.com/modelwatch/mwd/internal/flags"
)

// InitCmd should be used to represent the 'init' command.
type InitCmd struct {
	*cmd.BaseCmd
	cfgInitializer config.Initializer
}

// NewInitCmd creates a newly configured (Cobra) command.
func NewInitCmd(baseCmd *cmd.BaseCmd) *cobra.Command {
	c := &InitCmd{
		BaseCmd:        baseCmd,
		cfgInitializer: &config.DefaultLoader{},
	}

	cobraCommand := &cobra.Command{
		Use:   "init",
		Short: "Initializes the current directory as an `mwd` project",
		Long:  c.longDescription(),
		RunE:  c.run,
	}

	return cobraCommand
}

func (c *InitCmd) longDescription() string {
	return fmt.Sprintf(
		"Initializes the current directory as an `mwd` project, creating a %s configuration file.\n\n"+
			"The configuration file path can be overridden using the `--%s` flag or the `%s` environment variable",
		flags.DefaultConfigFile,
		flags.FlagNameConfigFile,
		flags.EnvVarConfigFile,
	)
}

func (c *InitCmd) run(cobraCmd *cobra.Command, _ []string) error {
	path := flags.ConfigFile
	if path == "" {
		path = flags.DefaultConfigFile
	}

	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to determine working directory: %w", err)
		}
		path = filepath.Join(wd, path)
	}

	if err := c.cfgInitializer.Init(path); err != nil {
		return err
	}

	c.Logger().Info("config file created", "path", path)
	_, _ = fmt.Fprintf(cobraCmd.OutOrStdout(), "Created %s\n", path)

	return nil
}
