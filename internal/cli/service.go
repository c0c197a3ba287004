package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ogulcanaydogan/traffic-guardian/internal/config"
	"github.com/spf13/cobra"
)

const (
	serviceName = "trafficguard"
	serviceFile = "/etc/systemd/system/" + serviceName + ".service"
)

const serviceUnit = `[Unit]
Description=Traffic Guardian network traffic monitor
After=network.target
Wants=network-online.target

[Service]
Type=simple
User=root
ExecStart=%s run --config %s
Restart=on-failure
RestartSec=30

[Install]
WantedBy=multi-user.target
`

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the systemd service",
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install and start the systemd service (requires root)",
	RunE:  runServiceInstall,
}

var serviceUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and remove the systemd service (requires root)",
	RunE:  runServiceUninstall,
}

func init() {
	rootCmd.AddCommand(serviceCmd)
	serviceCmd.AddCommand(serviceInstallCmd)
	serviceCmd.AddCommand(serviceUninstallCmd)
}

func runServiceInstall(cmd *cobra.Command, _ []string) error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("service installation requires root privileges")
	}

	// Validate before installing so a broken config fails here, not in the
	// service log.
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.HasNotifier() {
		return fmt.Errorf("no notification channels enabled; configure email, discord, or webhook first")
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}

	// systemd does not expand ~, so resolve the default path up front.
	configPath := cfgFile
	if configPath == "" {
		configPath = filepath.Join(config.DefaultDir(), "config.yaml")
	}

	unit := fmt.Sprintf(serviceUnit, exe, configPath)
	if err := os.WriteFile(serviceFile, []byte(unit), 0o644); err != nil {
		return fmt.Errorf("write service file: %w", err)
	}

	for _, args := range [][]string{
		{"daemon-reload"},
		{"enable", serviceName},
		{"start", serviceName},
	} {
		if out, err := exec.CommandContext(cmd.Context(), "systemctl", args...).CombinedOutput(); err != nil {
			return fmt.Errorf("systemctl %s: %v: %s", args[0], err, out)
		}
	}

	fmt.Printf("Service installed and started.\n")
	fmt.Printf("  Unit file: %s\n", serviceFile)
	fmt.Printf("  Logs:      journalctl -u %s -f\n", serviceName)
	return nil
}

func runServiceUninstall(cmd *cobra.Command, _ []string) error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("service removal requires root privileges")
	}

	// Best effort: the service may already be stopped or disabled.
	_ = exec.CommandContext(cmd.Context(), "systemctl", "stop", serviceName).Run()
	_ = exec.CommandContext(cmd.Context(), "systemctl", "disable", serviceName).Run()

	if err := os.Remove(serviceFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove service file: %w", err)
	}

	if out, err := exec.CommandContext(cmd.Context(), "systemctl", "daemon-reload").CombinedOutput(); err != nil {
		return fmt.Errorf("systemctl daemon-reload: %v: %s", err, out)
	}

	fmt.Println("Service uninstalled.")
	return nil
}
