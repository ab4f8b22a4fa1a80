package services

import (
	"context"
	"fmt"

	"github.com/brain-io/agent/internal/common"
	"github.com/brain-io/agent/internal/credentials"
	"github.com/brain-io/agent/internal/models"
	"github.com/sirupsen/logrus"
)

// Client owns the backing services the credential provider depends on
type Client struct {
	config *models.CredentialsConfig

	encrypt models.EncryptionImpl
	store   credentials.Store
}

func NewServicesClient(config *models.CredentialsConfig) *Client {
	return &Client{
		config: config,
	}
}

func (e *Client) Initialize(ctx context.Context) error {

	logrus.WithFields(logrus.Fields{
		"store":   e.config.GetStoreType(),
		"encrypt": e.config.Encrypt,
	}).Debugln("Creating services client")

	encrypt, err := e.configureEncryption()
	if err != nil {
		return err
	}

	if encrypt != nil {
		if err := encrypt.Initialize(); err != nil {
			return fmt.Errorf("error initializing encryption: %w", err)
		}
	}

	e.encrypt = encrypt

	store, err := e.configureStore(ctx)
	if err != nil {
		return err
	}

	e.store = store

	return nil
}

func (e *Client) Shutdown() error {
	if e.encrypt != nil {
		return e.encrypt.Shutdown()
	}
	return nil
}

func (e *Client) GetEncryption() models.EncryptionImpl {
	return e.encrypt
}

func (e *Client) HasEncryption() bool {
	return e.encrypt != nil
}

func (e *Client) GetCredentialStore() credentials.Store {
	return e.store
}

func (e *Client) configureStore(ctx context.Context) (credentials.Store, error) {

	switch e.config.GetStoreType() {
	case models.CredentialStoreAWS:
		return credentials.NewAWSStoreFromConfig(ctx, e.config.AWS)
	case models.CredentialStoreVault:
		return credentials.NewVaultStoreFromConfig(e.config.Vault)
	case models.CredentialStoreFile:
		path, err := common.ExpandPath(e.config.Path)
		if err != nil {
			return nil, err
		}
		return credentials.NewFileStore(path, e.encrypt), nil
	default:
		return nil, fmt.Errorf("unknown credential store %q", e.config.Store)
	}
}
