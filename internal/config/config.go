package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all Traffic Guardian configuration.
type Config struct {
	Thresholds ThresholdsConfig `mapstructure:"thresholds" yaml:"thresholds"`
	Monitor    MonitorConfig    `mapstructure:"monitor" yaml:"monitor"`
	Reporting  ReportingConfig  `mapstructure:"reporting" yaml:"reporting"`
	Action     ActionConfig     `mapstructure:"action" yaml:"action"`
	Notifiers  NotifiersConfig  `mapstructure:"notifiers" yaml:"notifiers"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// ThresholdsConfig defines the traffic limits.
type ThresholdsConfig struct {
	TotalLimitGB       float64 `mapstructure:"total_limit_gb" yaml:"total_limit_gb"`
	IntervalGB         float64 `mapstructure:"interval_gb" yaml:"interval_gb"`
	CriticalPercentage float64 `mapstructure:"critical_percentage" yaml:"critical_percentage"`
}

// MonitorConfig defines polling behavior.
type MonitorConfig struct {
	CheckIntervalSeconds int    `mapstructure:"check_interval_seconds" yaml:"check_interval_seconds"`
	Interface            string `mapstructure:"interface" yaml:"interface"`
	StatePath            string `mapstructure:"state_path" yaml:"state_path"`
}

// ReportingConfig defines scheduled notification behavior.
type ReportingConfig struct {
	EnableStartupNotification bool `mapstructure:"enable_startup_notification" yaml:"enable_startup_notification"`
	EnableDailyReport         bool `mapstructure:"enable_daily_report" yaml:"enable_daily_report"`
	DailyReportHour           int  `mapstructure:"daily_report_hour" yaml:"daily_report_hour"`
	IncludeTrafficTrend       bool `mapstructure:"include_traffic_trend" yaml:"include_traffic_trend"`
	IncludeDailyBreakdown     bool `mapstructure:"include_daily_breakdown" yaml:"include_daily_breakdown"`
}

// ActionConfig defines the shutdown response.
type ActionConfig struct {
	ShutdownDelaySeconds int  `mapstructure:"shutdown_delay_seconds" yaml:"shutdown_delay_seconds"`
	ShutdownForce        bool `mapstructure:"shutdown_force" yaml:"shutdown_force"`
}

// NotifiersConfig defines the alert channels.
type NotifiersConfig struct {
	Email   EmailConfig   `mapstructure:"email" yaml:"email"`
	Discord DiscordConfig `mapstructure:"discord" yaml:"discord"`
	Webhook WebhookConfig `mapstructure:"webhook" yaml:"webhook"`
}

// EmailConfig defines SMTP settings.
type EmailConfig struct {
	Enabled    bool     `mapstructure:"enabled" yaml:"enabled"`
	Server     string   `mapstructure:"server" yaml:"server"`
	Port       int      `mapstructure:"port" yaml:"port"`
	Username   string   `mapstructure:"username" yaml:"username"`
	Password   string   `mapstructure:"password" yaml:"password"`
	Sender     string   `mapstructure:"sender" yaml:"sender"`
	Recipients []string `mapstructure:"recipients" yaml:"recipients"`
	UseTLS     bool     `mapstructure:"use_tls" yaml:"use_tls"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
	WebhookURL      string `mapstructure:"webhook_url" yaml:"webhook_url"`
	Username        string `mapstructure:"username" yaml:"username"`
	AvatarURL       string `mapstructure:"avatar_url" yaml:"avatar_url"`
	MessageTemplate string `mapstructure:"message_template" yaml:"message_template"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" yaml:"url"`
	Secret  string `mapstructure:"secret" yaml:"secret"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultDir returns the default configuration directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".trafficguard")
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(DefaultDir())
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	v.SetDefault("thresholds.total_limit_gb", 2000.0)
	v.SetDefault("thresholds.interval_gb", 100.0)
	v.SetDefault("thresholds.critical_percentage", 90.0)
	v.SetDefault("monitor.check_interval_seconds", 3600)
	v.SetDefault("monitor.state_path", filepath.Join(DefaultDir(), "state.db"))
	v.SetDefault("reporting.enable_startup_notification", true)
	v.SetDefault("reporting.enable_daily_report", true)
	v.SetDefault("reporting.daily_report_hour", 8)
	v.SetDefault("reporting.include_traffic_trend", true)
	v.SetDefault("reporting.include_daily_breakdown", true)
	v.SetDefault("action.shutdown_delay_seconds", 60)
	v.SetDefault("action.shutdown_force", false)
	v.SetDefault("notifiers.email.port", 587)
	v.SetDefault("notifiers.email.use_tls", true)
	v.SetDefault("notifiers.discord.username", "Traffic Monitor")
	v.SetDefault("notifiers.discord.message_template", "**Traffic Alert**: {message}")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Environment variables
	v.SetEnvPrefix("TRAFFICGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects configuration that cannot drive the monitor. Called once
// at startup; validation failures are fatal.
func (c *Config) Validate() error {
	if c.Thresholds.TotalLimitGB <= 0 {
		return fmt.Errorf("thresholds.total_limit_gb must be positive, got %v", c.Thresholds.TotalLimitGB)
	}
	if c.Thresholds.IntervalGB <= 0 {
		return fmt.Errorf("thresholds.interval_gb must be positive, got %v", c.Thresholds.IntervalGB)
	}
	if c.Thresholds.CriticalPercentage <= 0 || c.Thresholds.CriticalPercentage > 100 {
		return fmt.Errorf("thresholds.critical_percentage must be in (0, 100], got %v", c.Thresholds.CriticalPercentage)
	}
	if c.Monitor.CheckIntervalSeconds <= 0 {
		return fmt.Errorf("monitor.check_interval_seconds must be positive, got %d", c.Monitor.CheckIntervalSeconds)
	}
	if c.Reporting.DailyReportHour < 0 || c.Reporting.DailyReportHour > 23 {
		return fmt.Errorf("reporting.daily_report_hour must be 0-23, got %d", c.Reporting.DailyReportHour)
	}
	if c.Action.ShutdownDelaySeconds < 0 {
		return fmt.Errorf("action.shutdown_delay_seconds must not be negative, got %d", c.Action.ShutdownDelaySeconds)
	}
	if c.Notifiers.Discord.Enabled && c.Notifiers.Discord.WebhookURL == "" {
		return fmt.Errorf("notifiers.discord.webhook_url is required when discord is enabled")
	}
	if c.Notifiers.Webhook.Enabled && c.Notifiers.Webhook.URL == "" {
		return fmt.Errorf("notifiers.webhook.url is required when webhook is enabled")
	}
	return nil
}

// HasNotifier reports whether at least one channel is enabled.
func (c *Config) HasNotifier() bool {
	return c.Notifiers.Email.Enabled || c.Notifiers.Discord.Enabled || c.Notifiers.Webhook.Enabled
}

// WriteDefault writes a starter configuration to path.
func WriteDefault(path string) error {
	defaults := &Config{
		Thresholds: ThresholdsConfig{TotalLimitGB: 2000, IntervalGB: 100, CriticalPercentage: 90},
		Monitor:    MonitorConfig{CheckIntervalSeconds: 3600, StatePath: filepath.Join(DefaultDir(), "state.db")},
		Reporting: ReportingConfig{
			EnableStartupNotification: true,
			EnableDailyReport:         true,
			DailyReportHour:           8,
			IncludeTrafficTrend:       true,
			IncludeDailyBreakdown:     true,
		},
		Action: ActionConfig{ShutdownDelaySeconds: 60},
		Notifiers: NotifiersConfig{
			Email: EmailConfig{Port: 587, UseTLS: true, Recipients: []string{"admin@example.com"}},
			Discord: DiscordConfig{
				Username:        "Traffic Monitor",
				MessageTemplate: "**Traffic Alert**: {message}",
			},
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}

	data, err := yaml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
