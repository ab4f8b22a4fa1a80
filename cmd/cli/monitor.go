package cli

import (
	"context"
	"fmt"

	"github.com/brain-io/agent/internal/common"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Keep the session valid in the foreground",
	Long: `Checks the session on the configured interval and signs in again when the
platform stops accepting it. Runs until interrupted.

Use 'brain service install' to run the same loop as a system service.`,
	RunE: func(cmd *cobra.Command, args []string) error {

		interval, err := cmd.Flags().GetDuration("interval")
		if err != nil {
			return err
		}
		if interval > 0 {
			cfg.Monitor.Interval = interval
		}

		ctx, cleanup := common.WithInterrupt(context.Background())
		defer cleanup()

		runtime, err := newRuntime(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Monitoring session every %s, press Ctrl+C to stop\n", cfg.Monitor.Interval)

		return runtime.NewMonitor().Run(ctx)
	},
}

func init() {
	monitorCmd.Flags().Duration("interval", 0, "Override the configured check interval")
	rootCmd.AddCommand(monitorCmd)
}
