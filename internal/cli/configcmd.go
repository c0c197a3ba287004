package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ogulcanaydogan/traffic-guardian/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets redacted",
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := cfgFile
	if path == "" {
		path = filepath.Join(config.DefaultDir(), "config.yaml")
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := config.WriteDefault(path); err != nil {
		return err
	}

	fmt.Printf("Configuration written to %s\n", path)
	fmt.Println("Edit it to enable at least one notification channel, then run 'trafficguard run'.")
	return nil
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	redacted := *cfg
	if redacted.Notifiers.Email.Password != "" {
		redacted.Notifiers.Email.Password = "********"
	}
	if redacted.Notifiers.Webhook.Secret != "" {
		redacted.Notifiers.Webhook.Secret = "********"
	}
	if url := redacted.Notifiers.Discord.WebhookURL; url != "" {
		// Webhook URLs embed a token; keep only the prefix.
		if i := strings.LastIndex(url, "/"); i > 0 {
			redacted.Notifiers.Discord.WebhookURL = url[:i+1] + "********"
		}
	}

	out, err := yaml.Marshal(&redacted)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
