package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/brain-io/agent/internal/common"
	"github.com/brain-io/agent/internal/models"
	"github.com/spf13/cobra"
)

// sessionCmd groups the commands that inspect or drop the stored session
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and manage the stored platform session",
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session without contacting the platform",
	Long: `Display the session persisted on disk along with how long it has left
before the local timeout forces a revalidation.

Example:
  brain session status`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showSessionStatus()
	},
}

var sessionValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Ask the platform whether the stored session is still accepted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateSession()
	},
}

var sessionLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Long: `Remove the persisted session so the next command signs in again.

With --forget-credentials the stored email and password are cleared too.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		forget, err := cmd.Flags().GetBool("forget-credentials")
		if err != nil {
			return err
		}
		return logout(forget)
	},
}

func showSessionStatus() error {
	fmt.Println(headerStyle.Render("Platform Session"))
	fmt.Println()

	ctx, cleanup := common.WithInterrupt(context.Background())
	defer cleanup()

	runtime, err := newRuntime(ctx)
	if err != nil {
		return err
	}

	session := runtime.Store.Load()
	if session == nil {
		fmt.Println(infoStyle.Render("No stored session found"))
		fmt.Println("   Run 'brain login' to authenticate")
		return nil
	}

	printSession(session, runtime.Store.Path())
	return nil
}

func validateSession() error {

	ctx, cleanup := common.WithInterrupt(context.Background())
	defer cleanup()

	runtime, err := newRuntime(ctx)
	if err != nil {
		return err
	}

	session := runtime.Store.Load()
	if session == nil {
		fmt.Println(infoStyle.Render("No stored session found"))
		return nil
	}

	valid, err := runtime.Validator.Validate(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to validate session: %w", err)
	}

	if !valid {
		fmt.Println(errorStyle.Render("The platform rejected the stored session"))
		fmt.Println("   Run 'brain login' to authenticate again")
		return nil
	}

	session.MarkValidated(time.Now().UTC())
	if err := runtime.Store.Save(session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Println(successStyle.Render("The platform accepted the stored session"))
	printSession(session, runtime.Store.Path())
	return nil
}

func logout(forgetCredentials bool) error {

	ctx, cleanup := common.WithInterrupt(context.Background())
	defer cleanup()

	runtime, err := newRuntime(ctx)
	if err != nil {
		return err
	}

	if err := runtime.Sessions.Invalidate(ctx); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Session removed"))

	if forgetCredentials {
		if err := runtime.Credentials.Invalidate(ctx); err != nil {
			return fmt.Errorf("failed to clear credentials: %w", err)
		}
		fmt.Printf("Credentials cleared from %s\n", runtime.Credentials.GetStore().Location())
	}

	return nil
}

func printSession(session *models.Session, path string) {

	now := time.Now().UTC()

	var statusDisplay string
	var expiryDisplay string

	switch {
	case session.TimedOut(now):
		statusDisplay = expiredStyle.Render("EXPIRED")
		expiryDisplay = expiredStyle.Render(fmt.Sprintf("Last validated: %s",
			session.LastValidated.Local().Format("2006-01-02 15:04:05")))
	case session.Timeout <= 0 && session.ExpiresAt.IsZero():
		statusDisplay = activeStyle.Render("ACTIVE")
		expiryDisplay = activeStyle.Render("No local timeout")
	default:
		statusDisplay = activeStyle.Render("ACTIVE")
		expiryDisplay = activeStyle.Render(fmt.Sprintf("Revalidate in %s",
			formatDuration(session.Remaining(now))))
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Account: %s", session.Identifier)))
	fmt.Println("  " + statusDisplay)
	fmt.Println("  " + expiryDisplay)
	fmt.Println("  " + infoStyle.Render(fmt.Sprintf("Endpoint: %s", session.Endpoint)))
	fmt.Println("  " + infoStyle.Render(fmt.Sprintf("Created: %s", session.CreatedAt.Local().Format("2006-01-02 15:04:05"))))
	fmt.Println("  " + infoStyle.Render(fmt.Sprintf("Stored at: %s", path)))
	fmt.Println()
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "expired"
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 24 {
		days := hours / 24
		hours = hours % 24
		if days == 1 {
			return fmt.Sprintf("%d day, %d hours", days, hours)
		}
		return fmt.Sprintf("%d days, %d hours", days, hours)
	}

	if hours > 0 {
		if hours == 1 {
			return fmt.Sprintf("%d hour, %d minutes", hours, minutes)
		}
		return fmt.Sprintf("%d hours, %d minutes", hours, minutes)
	}

	if minutes == 0 {
		return "less than a minute"
	}
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

func init() {
	sessionLogoutCmd.Flags().Bool("forget-credentials", false, "Also clear the stored email and password")

	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionStatusCmd)
	sessionCmd.AddCommand(sessionValidateCmd)
	sessionCmd.AddCommand(sessionLogoutCmd)
}
