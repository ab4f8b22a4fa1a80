package models

import "strings"

type CredentialStoreType string

const (
	CredentialStoreFile  CredentialStoreType = "file"
	CredentialStoreAWS   CredentialStoreType = "aws"
	CredentialStoreVault CredentialStoreType = "vault"
)

// CredentialsConfig selects and configures where the platform identity is
// kept between runs.
type CredentialsConfig struct {
	Store   string `mapstructure:"store" default:"file"`
	Path    string `mapstructure:"path" default:"~/secrets/platform-brain.json"`
	Encrypt bool   `mapstructure:"encrypt"`

	Encryption EncryptionConfig  `mapstructure:"encryption"`
	AWS        AWSSecretConfig   `mapstructure:"aws"`
	Vault      VaultSecretConfig `mapstructure:"vault"`
}

func (c *CredentialsConfig) GetStoreType() CredentialStoreType {
	if len(c.Store) == 0 {
		return CredentialStoreFile
	}
	return CredentialStoreType(c.Store)
}

type EncryptionProvider string

const (
	EncryptionProviderLocal EncryptionProvider = "local"
	EncryptionProviderAWS   EncryptionProvider = "aws"
)

type EncryptionConfig struct {
	Provider string `mapstructure:"provider" default:"local"`

	// local
	Password string `mapstructure:"password"`
	Salt     string `mapstructure:"salt"`

	// aws, region and profile come from credentials.aws
	KeyID string `mapstructure:"key_id"`
}

func (e *EncryptionConfig) GetProvider() EncryptionProvider {
	if len(e.Provider) == 0 {
		return EncryptionProviderLocal
	}
	return EncryptionProvider(strings.ToLower(e.Provider))
}

type AWSSecretConfig struct {
	SecretID string `mapstructure:"secret_id"`
	Region   string `mapstructure:"region"`
	Profile  string `mapstructure:"profile"`
}

type VaultSecretConfig struct {
	Address string `mapstructure:"address"`
	Token   string `mapstructure:"token"`
	Mount   string `mapstructure:"mount" default:"secret"`
	Path    string `mapstructure:"path" default:"platform-brain"`
}
