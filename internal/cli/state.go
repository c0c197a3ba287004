package cli

import (
	"fmt"
	"time"

	"github.com/ogulcanaydogan/traffic-guardian/pkg/model"
	"github.com/ogulcanaydogan/traffic-guardian/pkg/state"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset the persisted notification state",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the persisted notification state",
	RunE:  runStateShow,
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear notified thresholds and the critical flag for the current period",
	RunE:  runStateReset,
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateResetCmd)
}

func openStore() (*state.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return state.Open(cfg.Monitor.StatePath)
}

func runStateShow(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Load(cmd.Context(), model.PeriodKey(time.Now()))
	if err != nil {
		return err
	}

	fmt.Printf("Notification State\n")
	fmt.Printf("  Billing Period:        %s\n", rec.Month)
	fmt.Printf("  Last Notified Interval: %d\n", rec.LastInterval)
	fmt.Printf("  Critical Fired:        %t\n", rec.CriticalFired)
	if rec.LastReportDate != "" {
		fmt.Printf("  Last Daily Report:     %s\n", rec.LastReportDate)
	} else {
		fmt.Printf("  Last Daily Report:     never\n")
	}
	return nil
}

func runStateReset(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	month := model.PeriodKey(time.Now())
	if err := store.Reset(cmd.Context(), month); err != nil {
		return err
	}

	fmt.Printf("Notification state reset for %s\n", month)
	return nil
}
