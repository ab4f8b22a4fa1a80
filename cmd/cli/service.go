package cli

import (
	"fmt"
	"os"

	"github.com/brain-io/agent/internal/agent"
	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Service management commands",
	Long: `Manage the session monitor as a system service.

The service cannot prompt, so credentials must come from the environment
or the configured credential store. Run 'brain login' once beforehand.`,
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the monitor as a system service",
	Long:  `Install the session monitor as a system service that will start automatically on boot`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := agent.CreateService(cfg)
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}

		err = s.Install()
		if err != nil {
			printInstallInstructions()
			return fmt.Errorf("failed to install service: %w", err)
		}

		fmt.Println(successStyle.Render("Brain Agent service installed successfully"))
		fmt.Println("   Use 'brain service start' to start the service")
		return nil
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the monitor service",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := agent.CreateService(cfg)
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}

		if err := s.Start(); err != nil {
			return fmt.Errorf("failed to start service: %w", err)
		}

		fmt.Println(successStyle.Render("Brain Agent service started successfully"))
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the monitor service",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := agent.CreateService(cfg)
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}

		if err := s.Stop(); err != nil {
			return fmt.Errorf("failed to stop service: %w", err)
		}

		fmt.Println(successStyle.Render("Brain Agent service stopped successfully"))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the monitor service status",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := agent.CreateService(cfg)
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}

		status, err := s.Status()
		if err != nil {
			return fmt.Errorf("failed to get service status: %w", err)
		}

		fmt.Printf("Brain Agent Service Status: %s\n", describeStatus(status))
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Uninstall the monitor service",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := agent.CreateService(cfg)
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}

		// Stop the service first if it's running
		if err := s.Stop(); err != nil {
			fmt.Println("Service was not running")
		}

		if err := s.Uninstall(); err != nil {
			return fmt.Errorf("failed to uninstall service: %w", err)
		}

		fmt.Println(successStyle.Render("Brain Agent service uninstalled successfully"))
		return nil
	},
}

// runCmd is what the service manager executes
var runCmd = &cobra.Command{
	Use:    "run",
	Short:  "Run the monitor under the service manager",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := agent.CreateService(cfg)
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}
		return s.Run()
	},
}

func describeStatus(status service.Status) string {
	switch status {
	case service.StatusRunning:
		return activeStyle.Render("Running")
	case service.StatusStopped:
		return expiredStyle.Render("Stopped")
	default:
		return warningStyle.Render("Unknown")
	}
}

func printInstallInstructions() {
	exePath, _ := os.Executable()
	fmt.Println("\nService installation failed. You may need to run with elevated privileges:")
	fmt.Println("\nLinux:")
	fmt.Printf("   sudo %s service install\n", exePath)
	fmt.Println("\nWindows:")
	fmt.Printf("   Run as Administrator: %s service install\n", exePath)
	fmt.Println("\nmacOS:")
	fmt.Printf("   sudo %s service install\n", exePath)
}

func init() {

	rootCmd.AddCommand(serviceCmd)
	serviceCmd.AddCommand(installCmd)
	serviceCmd.AddCommand(startCmd)
	serviceCmd.AddCommand(stopCmd)
	serviceCmd.AddCommand(statusCmd)
	serviceCmd.AddCommand(removeCmd)
	serviceCmd.AddCommand(runCmd)
}
