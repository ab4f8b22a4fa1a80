package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/brain-io/agent/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	EnvCredentialEmail    = "BRAIN_CREDENTIAL_EMAIL"
	EnvCredentialPassword = "BRAIN_CREDENTIAL_PASSWORD"
)

// ErrNonInteractive is returned when no stored credential is usable and
// there is no way to ask the operator for one.
var ErrNonInteractive = errors.New("no credentials available and prompting is not possible")

// Prompter asks the operator for an identity. The previous identifier, if
// any, is passed as a hint so it can be pre-filled.
type Prompter interface {
	PromptCredentials(ctx context.Context, previous models.Credential) (models.Credential, error)
}

// Provider resolves the platform identity from the environment, then the
// store, then the operator.
type Provider struct {
	store     Store
	prompter  Prompter
	lookupEnv func(string) (string, bool)

	mu sync.Mutex
	// set once the environment identity was rejected so it is not retried
	skipEnv bool
}

func NewProvider(store Store, prompter Prompter) *Provider {
	return &Provider{
		store:     store,
		prompter:  prompter,
		lookupEnv: os.LookupEnv,
	}
}

func (p *Provider) GetStore() Store {
	return p.store
}

func (p *Provider) GetCredentials(ctx context.Context) (models.Credential, error) {

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.skipEnv {
		if credential, ok := p.fromEnvironment(); ok {
			logrus.WithField("identifier", credential.Identifier).Debugln("Using credentials from environment")
			return credential, nil
		}
	}

	stored, err := p.store.Load(ctx)
	if err != nil {
		return models.Credential{}, fmt.Errorf("failed to load credentials from %s: %w", p.store.Location(), err)
	}

	if !stored.IsEmpty() {
		logrus.WithFields(logrus.Fields{
			"identifier": stored.Identifier,
			"store":      p.store.Location(),
		}).Debugln("Using stored credentials")
		return stored, nil
	}

	if p.prompter == nil {
		return models.Credential{}, ErrNonInteractive
	}

	entered, err := p.prompter.PromptCredentials(ctx, stored)
	if err != nil {
		return models.Credential{}, err
	}

	entered.Identifier = strings.TrimSpace(entered.Identifier)

	if entered.IsEmpty() {
		return models.Credential{}, fmt.Errorf("both an email and a password are required")
	}

	if err := p.store.Save(ctx, entered); err != nil {
		logrus.WithError(err).WithField("store", p.store.Location()).Warnln("Failed to save credentials")
	}

	return entered, nil
}

// Invalidate forgets the current identity. The store is reset to empty and
// the environment is ignored for the rest of the process, so the next
// GetCredentials prompts.
func (p *Provider) Invalidate(ctx context.Context) error {

	p.mu.Lock()
	defer p.mu.Unlock()

	p.skipEnv = true

	if err := p.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear credentials in %s: %w", p.store.Location(), err)
	}

	logrus.WithField("store", p.store.Location()).Infoln("Cleared rejected credentials")

	return nil
}

func (p *Provider) fromEnvironment() (models.Credential, bool) {

	email, _ := p.lookupEnv(EnvCredentialEmail)
	password, _ := p.lookupEnv(EnvCredentialPassword)

	credential := models.Credential{
		Identifier: strings.TrimSpace(email),
		Secret:     password,
	}

	return credential, !credential.IsEmpty()
}
