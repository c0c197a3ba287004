package cli

import (
	"fmt"
	"time"

	"github.com/ogulcanaydogan/traffic-guardian/pkg/monitor"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current traffic status without starting the loop",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().Bool("full", false, "Print the full status report instead of the summary")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	reader := initReader(cfg, logger)
	if err := reader.Verify(cmd.Context()); err != nil {
		return fmt.Errorf("verify vnstat: %w", err)
	}

	sample, err := reader.Sample(cmd.Context())
	if err != nil {
		return fmt.Errorf("sample traffic: %w", err)
	}

	thresholds := thresholdsFrom(cfg)
	pct := (sample.MonthlyGB / thresholds.TotalLimitGB) * 100

	full, _ := cmd.Flags().GetBool("full")
	if full {
		history, _ := reader.DailyHistory(cmd.Context(), 7)
		checkInterval := time.Duration(cfg.Monitor.CheckIntervalSeconds) * time.Second
		fmt.Print(monitor.StatusSummary(time.Now(), sample, thresholds, checkInterval, history))
		return nil
	}

	fmt.Printf("Traffic Monitor Status\n")
	fmt.Printf("  Current Usage:      %.2fGB / %.0fGB (%.1f%%)\n", sample.MonthlyGB, thresholds.TotalLimitGB, pct)
	fmt.Printf("  Today:              %.2fGB\n", sample.DailyGB)
	fmt.Printf("  Critical Threshold: %.2fGB (%.0f%%)\n", thresholds.CriticalGB(), thresholds.CriticalPct)

	switch {
	case sample.MonthlyGB >= thresholds.CriticalGB():
		fmt.Println("  Status:             CRITICAL - shutdown threshold exceeded!")
	case pct > 70:
		fmt.Println("  Status:             WARNING - high usage")
	default:
		fmt.Println("  Status:             OK")
	}

	return nil
}
