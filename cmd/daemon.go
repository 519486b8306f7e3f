package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/modelwatch/mwd/internal/alert"
	"github.com/modelwatch/mwd/internal/api"
	"github.com/modelwatch/mwd/internal/backend"
	"github.com/modelwatch/mwd/internal/cmd"
	"github.com/modelwatch/mwd/internal/config"
	"github.com/modelwatch/mwd/internal/flags"
	"github.com/modelwatch/mwd/internal/history"
	"github.com/modelwatch/mwd/internal/monitor"
	"github.com/modelwatch/mwd/internal/probe"
)

// DaemonCmd should be used to represent the 'daemon' command.
type DaemonCmd struct {
	*cmd.BaseCmd
	Addr        string
	CORSEnabled bool
	CORSOrigins []string
	cfgLoader   config.Loader
}

// NewDaemonCmd creates a newly configured (Cobra) command.
func NewDaemonCmd(baseCmd *cmd.BaseCmd) *cobra.Command {
	c := &DaemonCmd{
		BaseCmd:   baseCmd,
		cfgLoader: &config.DefaultLoader{},
	}

	cobraCommand := &cobra.Command{
		Use:   "daemon [--addr]",
		Short: "Launches an `mwd` daemon instance",
		Long: "Launches an `mwd` daemon instance, which schedules health checks against the configured " +
			"targets and serves the monitoring HTTP API",
		RunE: c.run,
	}

	cobraCommand.Flags().StringVar(
		&c.Addr,
		"addr",
		"",
		"Address for the daemon to bind, overriding the configured api_addr",
	)

	cobraCommand.Flags().BoolVar(
		&c.CORSEnabled,
		"cors-enabled",
		false,
		"Enable CORS headers on the HTTP API",
	)

	cobraCommand.Flags().StringSliceVar(
		&c.CORSOrigins,
		"cors-origins",
		nil,
		"Origins allowed to access the HTTP API when CORS is enabled",
	)

	return cobraCommand
}

// run is configured (via NewDaemonCmd) to be called by the Cobra framework
// when the command is executed. It may return an error (or nil, when there is
// no error).
func (c *DaemonCmd) run(_ *cobra.Command, _ []string) error {
	logger := c.Logger()

	cfg, err := c.cfgLoader.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	addr := strings.TrimSpace(c.Addr)
	if addr == "" {
		addr = cfg.APIAddr
	}

	probeBackend, err := backend.NewHTTPBackend(logger, backend.WithAPIKeys(cfg.APIKeys()))
	if err != nil {
		return fmt.Errorf("failed to create probe backend: %w", err)
	}

	catalog, err := probe.NewCatalog(probeBackend, cfg.ProbeOverrides())
	if err != nil {
		return fmt.Errorf("failed to build check catalog: %w", err)
	}

	evaluator, err := alert.NewEvaluator(cfg.AlertThresholds())
	if err != nil {
		return fmt.Errorf("failed to create alert evaluator: %w", err)
	}

	store, err := c.openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close history store", "error", err)
		}
	}()

	manager, err := monitor.NewManager(monitor.Dependencies{
		Logger:    logger,
		Catalog:   catalog,
		Executor:  probe.NewExecutor(logger),
		Evaluator: evaluator,
		Store:     store,
	})
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}
	defer manager.Close()

	daemonCtx, daemonCtxCancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer daemonCtxCancel()

	c.logRecentSessions(daemonCtx, store)

	// Monitoring for configured targets begins immediately; API-started
	// sessions join them at runtime.
	for _, entry := range cfg.Targets {
		session, err := manager.Start(entry.Target(), entry.Checks)
		if err != nil {
			return fmt.Errorf("failed to start monitoring configured target '%s': %w", entry.ID, err)
		}
		logger.Info("monitoring configured target", "target", entry.ID, "session", session.ID)
	}

	apiServer, err := api.NewServer(api.Dependencies{
		Addr:    addr,
		Monitor: manager,
		Store:   store,
		Logger:  logger,
	},
		api.WithCORSEnabled(c.CORSEnabled),
		api.WithCORSAllowOrigins(c.CORSOrigins),
	)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	runErr := make(chan error, 1)
	go func() {
		if err := apiServer.Start(daemonCtx); err != nil && !errors.Is(err, context.Canceled) {
			runErr <- err
		}
		close(runErr)
	}()

	select {
	case <-daemonCtx.Done():
		logger.Info("Shutting down daemon")
		return <-runErr // Graceful Ctrl+C / SIGTERM.
	case err := <-runErr:
		logger.Error("daemon exited with error", "error", err)
		return err
	}
}

func (c *DaemonCmd) openStore(cfg *config.Config) (*history.Store, error) {
	store, err := history.NewStore(cfg.StoragePath, c.Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	return store, nil
}

// logRecentSessions surfaces the tail of the session history at startup.
func (c *DaemonCmd) logRecentSessions(ctx context.Context, store *history.Store) {
	logger := c.Logger()

	sessions, err := store.LoadRecent(ctx, 5)
	if err != nil {
		logger.Warn("failed to load recent sessions", "error", err)
		return
	}

	for _, s := range sessions {
		grade := ""
		if s.Statistics != nil {
			grade = string(s.Statistics.Grade)
		}
		logger.Info("previous session",
			"session", s.ID, "target", s.Target.ID, "started", s.StartedAt, "grade", grade)
	}
}
