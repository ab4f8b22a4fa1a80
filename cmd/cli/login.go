package cli

import (
	"context"
	"fmt"

	"github.com/brain-io/agent/internal/common"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with the platform",
	Long: `Reuses the stored session when the platform still accepts it, otherwise
signs in again and completes biometric verification if the platform asks for it.`,
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {

	// Set up signal handling for graceful cancellation
	ctx, cleanup := common.WithInterrupt(context.Background())
	defer cleanup()

	runtime, err := newRuntime(ctx)
	if err != nil {
		return err
	}

	session, err := runtime.Sessions.GetSession(ctx)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nLogin cancelled.")
		}
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Println(successStyle.Render("Authenticated"))
	printSession(session, runtime.Store.Path())

	return nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
