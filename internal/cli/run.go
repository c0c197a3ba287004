package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ogulcanaydogan/traffic-guardian/pkg/action"
	"github.com/ogulcanaydogan/traffic-guardian/pkg/alerts"
	"github.com/ogulcanaydogan/traffic-guardian/pkg/monitor"
	"github.com/ogulcanaydogan/traffic-guardian/pkg/state"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the traffic monitoring loop",
	Long: `Start the monitoring loop: poll vnstat on the configured interval, send
interval and critical alerts, and schedule a shutdown when the critical
threshold is crossed. Runs until interrupted.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("no-state", false, "Keep notification state in memory only (skip the state database)")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	if !cfg.HasNotifier() {
		return fmt.Errorf("no notification channels enabled; configure email, discord, or webhook")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader := initReader(cfg, logger)
	if err := reader.Verify(ctx); err != nil {
		return fmt.Errorf("verify vnstat: %w", err)
	}

	notifiers, err := initNotifiers(cfg)
	if err != nil {
		return err
	}
	sink := alerts.NewSink(notifiers, logger)

	shutdown := action.NewShutdownAction(cfg.Action.ShutdownDelaySeconds, cfg.Action.ShutdownForce, logger)

	var store monitor.StateStore
	noState, _ := cmd.Flags().GetBool("no-state")
	if !noState {
		s, err := state.Open(cfg.Monitor.StatePath)
		if err != nil {
			return fmt.Errorf("open state store: %w", err)
		}
		defer s.Close()
		store = s
	}

	m := monitor.New(reader, thresholdsFrom(cfg), sink, shutdown, store, monitorConfigFrom(cfg), logger)
	return m.Run(ctx)
}
