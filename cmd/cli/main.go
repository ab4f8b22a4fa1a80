package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/brain-io/agent/internal/agent"
	"github.com/brain-io/agent/internal/auth"
	"github.com/brain-io/agent/internal/config"
	"github.com/brain-io/agent/internal/credentials"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Global configuration instance
var cfg *config.Config

// loadConfig loads the configuration based on the --config flag or default locations
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, err := cmd.Flags().GetString("config")

	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	return config.Load(configFile)
}

func preRunConfigE(cmd *cobra.Command, _ []string) error {
	// Load configuration before any command runs
	var err error
	cfg, err = loadConfig(cmd)

	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// check if verbose flag is set
	verbose, err := cmd.Flags().GetBool("verbose")
	if err == nil && verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	return nil
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newRuntime wires the runtime for a foreground command. Prompts are only
// offered when stdin is a terminal.
func newRuntime(ctx context.Context) (*agent.Runtime, error) {

	var prompter credentials.Prompter
	var resolver auth.ChallengeResolver

	if isInteractive() {
		prompter = &formPrompter{}
		if cfg.GetChallengeMode() == config.ChallengeModeInteractive {
			resolver = &formResolver{}
		}
	} else {
		logrus.Debugln("stdin is not a terminal, prompts disabled")
	}

	return agent.NewRuntime(ctx, cfg, prompter, resolver)
}

var rootCmd = &cobra.Command{
	Use:   "brain",
	Short: "Brain Agent - Keeps an authenticated platform session on hand",
	Long: `Brain Agent signs in to the research platform, keeps the session cookies
on disk and revalidates them before they go stale.

Credentials come from BRAIN_CREDENTIAL_EMAIL and BRAIN_CREDENTIAL_PASSWORD,
the configured credential store, or an interactive prompt, in that order.`,
	PersistentPreRunE: preRunConfigE,
	SilenceUsage:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogin(cmd, args)
	},
}

func init() {

	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default is $HOME/.config/brain/config.yaml)")

}

func GetCommandOptions() *cobra.Command {
	return rootCmd
}
