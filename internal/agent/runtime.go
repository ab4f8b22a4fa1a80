package agent

import (
	"context"
	"fmt"

	"github.com/brain-io/agent/internal/auth"
	"github.com/brain-io/agent/internal/common"
	"github.com/brain-io/agent/internal/config"
	"github.com/brain-io/agent/internal/credentials"
	"github.com/brain-io/agent/internal/platform"
	"github.com/brain-io/agent/internal/sessions"
	"github.com/sirupsen/logrus"
)

// Runtime is the wired object graph every command and the service work
// against.
type Runtime struct {
	Config      *config.Config
	Credentials *credentials.Provider
	Sessions    *sessions.Manager
	Store       *sessions.FileStore
	Validator   *sessions.RemoteValidator
	Platform    *platform.Client
}

// NewRuntime builds the session manager and its collaborators from cfg.
// A nil prompter makes the credential provider non-interactive. A nil
// resolver selects one from the configured challenge mode, falling back to
// polling since an interactive resolver has to come from the caller.
func NewRuntime(
	ctx context.Context,
	cfg *config.Config,
	prompter credentials.Prompter,
	resolver auth.ChallengeResolver,
) (*Runtime, error) {

	services, err := cfg.GetServices(ctx)
	if err != nil {
		return nil, err
	}

	sessionPath, err := cfg.GetSessionPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session path: %w", err)
	}

	if resolver == nil {
		if cfg.GetChallengeMode() == config.ChallengeModeInteractive {
			logrus.Debugln("No interactive challenge resolver available, polling instead")
		}
		resolver = auth.NewPollingResolver(cfg.Challenge.PollInterval)
	}

	client := common.NewPlatformClient(cfg.GetPlatformEndpoint(), cfg.Platform.Timeout)

	provider := credentials.NewProvider(services.GetCredentialStore(), prompter)

	authenticator := auth.NewAuthenticator(client, provider, resolver, auth.Options{
		AuthenticationPath: cfg.Platform.AuthenticationPath,
		SessionTimeout:     cfg.Session.Timeout,
	})

	store := sessions.NewFileStore(sessionPath)
	validator := sessions.NewRemoteValidator(client, cfg.Platform.ValidationPath)
	manager := sessions.NewManager(store, validator, authenticator, provider)

	logrus.WithFields(logrus.Fields{
		"endpoint":    cfg.GetPlatformEndpoint(),
		"session":     sessionPath,
		"credentials": services.GetCredentialStore().Location(),
	}).Debugln("Runtime ready")

	return &Runtime{
		Config:      cfg,
		Credentials: provider,
		Sessions:    manager,
		Store:       store,
		Validator:   validator,
		Platform:    platform.NewClient(client, manager),
	}, nil
}

func (r *Runtime) NewMonitor() *sessions.Monitor {
	return sessions.NewMonitor(r.Sessions, r.Config.Monitor.Interval)
}
