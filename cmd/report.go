package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/modelwatch/mwd/internal/cmd"
	"github.com/modelwatch/mwd/internal/config"
	"github.com/modelwatch/mwd/internal/domain"
	"github.com/modelwatch/mwd/internal/flags"
	"github.com/modelwatch/mwd/internal/history"
)

// ReportCmd should be used to represent the 'report' command.
type ReportCmd struct {
	*cmd.BaseCmd
	Since     time.Duration
	cfgLoader config.Loader
}

// NewReportCmd creates a newly configured (Cobra) command.
func NewReportCmd(baseCmd *cmd.BaseCmd) *cobra.Command {
	c := &ReportCmd{
		BaseCmd:   baseCmd,
		cfgLoader: &config.DefaultLoader{},
	}

	cobraCommand := &cobra.Command{
		Use:   "report <target>",
		Short: "Prints a target's cross-session reliability report",
		Long: "Prints a reliability report for the given target, aggregated from the finished " +
			"monitoring sessions in the local history database",
		Args: cobra.ExactArgs(1),
		RunE: c.run,
	}

	cobraCommand.Flags().DurationVar(
		&c.Since,
		"since",
		7*24*time.Hour,
		"How far back to report, e.g. 24h or 168h",
	)

	return cobraCommand
}

// run is configured (via NewReportCmd) to be called by the Cobra framework
// when the command is executed. It may return an error (or nil, when there is
// no error).
func (c *ReportCmd) run(cobraCmd *cobra.Command, args []string) error {
	cfg, err := c.cfgLoader.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	store, err := history.NewStore(cfg.StoragePath, c.Logger())
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	now := time.Now().UTC()
	report, err := store.ReportFor(context.Background(), args[0], now.Add(-c.Since), now)
	if err != nil {
		return err
	}

	printReport(cobraCmd.OutOrStdout(), report)

	return nil
}

// printReport renders a reliability report for terminal consumption.
func printReport(w io.Writer, report domain.ReliabilityReport) {
	fmt.Fprintf(w, "Reliability report for %s\n", report.TargetID)
	fmt.Fprintf(w, "  Range:                 %s .. %s\n",
		report.From.Format(time.RFC3339), report.To.Format(time.RFC3339))
	fmt.Fprintf(w, "  Sessions:              %d\n", report.Sessions)

	if report.Sessions == 0 {
		fmt.Fprintln(w, "  No finished sessions in range.")
		return
	}

	fmt.Fprintf(w, "  Average uptime:        %.2f%%\n", report.AverageUptime*100)
	fmt.Fprintf(w, "  Average response time: %s\n", report.AverageResponseTime)
	fmt.Fprintf(w, "  Alerts raised:         %d\n", report.TotalAlerts)
	fmt.Fprintf(w, "  Grade:                 %s\n", report.Grade)
	fmt.Fprintf(w, "  Trend:                 %s\n", report.Trend)
}
