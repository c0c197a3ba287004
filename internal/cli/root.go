// Package cli implements the trafficguard command tree.
package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/ogulcanaydogan/traffic-guardian/internal/config"
	"github.com/ogulcanaydogan/traffic-guardian/pkg/alerts"
	"github.com/ogulcanaydogan/traffic-guardian/pkg/monitor"
	"github.com/ogulcanaydogan/traffic-guardian/pkg/vnstat"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "trafficguard",
	Short: "Traffic Guardian - Network traffic monitoring and alerting",
	Long: `Traffic Guardian polls vnstat for cumulative network traffic, sends staged
alerts as usage crosses configured thresholds, and shuts the system down when
the critical threshold is reached. Alerts go out over email, Discord, or a
generic webhook.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.trafficguard/config.yaml)")
}

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initNotifiers creates alert channels from config, in configuration order.
func initNotifiers(cfg *config.Config) ([]alerts.Notifier, error) {
	var notifiers []alerts.Notifier

	if cfg.Notifiers.Email.Enabled {
		n, err := alerts.NewEmailNotifier(alerts.EmailConfig{
			Server:     cfg.Notifiers.Email.Server,
			Port:       cfg.Notifiers.Email.Port,
			Username:   cfg.Notifiers.Email.Username,
			Password:   cfg.Notifiers.Email.Password,
			Sender:     cfg.Notifiers.Email.Sender,
			Recipients: cfg.Notifiers.Email.Recipients,
			UseTLS:     cfg.Notifiers.Email.UseTLS,
		})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}

	if cfg.Notifiers.Discord.Enabled {
		notifiers = append(notifiers, alerts.NewDiscordNotifier(
			cfg.Notifiers.Discord.WebhookURL,
			cfg.Notifiers.Discord.Username,
			cfg.Notifiers.Discord.AvatarURL,
			cfg.Notifiers.Discord.MessageTemplate,
		))
	}

	if cfg.Notifiers.Webhook.Enabled {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(
			cfg.Notifiers.Webhook.URL,
			cfg.Notifiers.Webhook.Secret,
		))
	}

	return notifiers, nil
}

// thresholdsFrom maps validated config to tracker thresholds.
func thresholdsFrom(cfg *config.Config) monitor.Thresholds {
	return monitor.Thresholds{
		TotalLimitGB: cfg.Thresholds.TotalLimitGB,
		IntervalGB:   cfg.Thresholds.IntervalGB,
		CriticalPct:  cfg.Thresholds.CriticalPercentage,
	}
}

// monitorConfigFrom maps config to scheduler settings.
func monitorConfigFrom(cfg *config.Config) monitor.Config {
	return monitor.Config{
		CheckInterval:             time.Duration(cfg.Monitor.CheckIntervalSeconds) * time.Second,
		DailyReportHour:           cfg.Reporting.DailyReportHour,
		EnableStartupNotification: cfg.Reporting.EnableStartupNotification,
		EnableDailyReport:         cfg.Reporting.EnableDailyReport,
		IncludeTrafficTrend:       cfg.Reporting.IncludeTrafficTrend,
		IncludeDailyBreakdown:     cfg.Reporting.IncludeDailyBreakdown,
	}
}

// initReader creates a vnstat provider and verifies the install.
func initReader(cfg *config.Config, logger *slog.Logger) *vnstat.Provider {
	return vnstat.NewProvider(cfg.Monitor.Interface, logger)
}
