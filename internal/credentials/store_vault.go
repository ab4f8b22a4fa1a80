package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/brain-io/agent/internal/models"
	vault "github.com/hashicorp/vault/api"
	"github.com/sirupsen/logrus"
)

const (
	vaultIdentifierKey = "email"
	vaultSecretKey     = "password"
)

// KVStore is the subset of the Vault KV v2 client the store needs.
// *vault.KVv2 satisfies it.
type KVStore interface {
	Get(ctx context.Context, secretPath string) (*vault.KVSecret, error)
	Put(ctx context.Context, secretPath string, data map[string]any, opts ...vault.KVOption) (*vault.KVSecret, error)
}

// VaultStore keeps the credential in a HashiCorp Vault KV v2 secret
type VaultStore struct {
	kv    KVStore
	mount string
	path  string
}

func NewVaultStore(kv KVStore, mount, path string) *VaultStore {
	return &VaultStore{
		kv:    kv,
		mount: mount,
		path:  path,
	}
}

func NewVaultStoreFromConfig(cfg models.VaultSecretConfig) (*VaultStore, error) {

	vaultConfig := vault.DefaultConfig()
	if vaultConfig.Error != nil {
		return nil, fmt.Errorf("failed to read vault environment: %w", vaultConfig.Error)
	}

	if len(cfg.Address) > 0 {
		vaultConfig.Address = cfg.Address
	}

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	if len(cfg.Token) > 0 {
		client.SetToken(cfg.Token)
	}

	mount := cfg.Mount
	if len(mount) == 0 {
		mount = "secret"
	}

	path := cfg.Path
	if len(path) == 0 {
		path = "platform-brain"
	}

	return NewVaultStore(client.KVv2(mount), mount, path), nil
}

func (v *VaultStore) Location() string {
	return fmt.Sprintf("vault://%s/%s", v.mount, v.path)
}

func (v *VaultStore) Load(ctx context.Context) (models.Credential, error) {

	secret, err := v.kv.Get(ctx, v.path)
	if err != nil {
		if errors.Is(err, vault.ErrSecretNotFound) {
			return models.Credential{}, nil
		}
		return models.Credential{}, fmt.Errorf("failed to read vault secret %s: %w", v.Location(), err)
	}

	if secret == nil || secret.Data == nil {
		return models.Credential{}, nil
	}

	identifier, _ := secret.Data[vaultIdentifierKey].(string)
	password, _ := secret.Data[vaultSecretKey].(string)

	return models.Credential{
		Identifier: identifier,
		Secret:     password,
	}, nil
}

func (v *VaultStore) Save(ctx context.Context, credential models.Credential) error {

	data := map[string]any{}

	if !credential.IsEmpty() {
		data[vaultIdentifierKey] = credential.Identifier
		data[vaultSecretKey] = credential.Secret
	}

	if _, err := v.kv.Put(ctx, v.path, data); err != nil {
		return fmt.Errorf("failed to write vault secret %s: %w", v.Location(), err)
	}

	logrus.WithField("secret", v.Location()).Debugln("Wrote credentials secret")

	return nil
}

func (v *VaultStore) Clear(ctx context.Context) error {
	return v.Save(ctx, models.Credential{})
}
