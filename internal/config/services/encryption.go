package services

import (
	"fmt"
	"os"

	encrypt "github.com/brain-io/agent/internal/config/services/encrypt"
	"github.com/brain-io/agent/internal/models"
	"github.com/sirupsen/logrus"
)

// configureEncryption returns nil when the credential file is kept in
// plaintext. Only the file store encrypts locally; the remote stores encrypt
// at rest on their own.
func (e *Client) configureEncryption() (models.EncryptionImpl, error) {

	if !e.config.Encrypt {
		return nil, nil
	}

	if e.config.GetStoreType() != models.CredentialStoreFile {
		logrus.WithField("store", e.config.GetStoreType()).
			Warnln("credentials.encrypt only applies to the file store, ignoring")
		return nil, nil
	}

	encryptConfig := e.config.Encryption

	switch encryptConfig.GetProvider() {
	case models.EncryptionProviderAWS:

		if len(encryptConfig.KeyID) == 0 {
			return nil, fmt.Errorf("credentials.encryption.key_id is required for aws encryption")
		}

		// KMS shares region and profile with the Secrets Manager store
		return encrypt.NewAwsEncryptionFromConfig(encryptConfig.KeyID, e.config.AWS), nil

	case models.EncryptionProviderLocal:

		if len(encryptConfig.Password) == 0 {
			return nil, fmt.Errorf("credentials.encryption.password is required when credentials.encrypt is enabled")
		}

		// Fall back to the hostname so the key is at least bound to this machine
		salt := encryptConfig.Salt
		if len(salt) == 0 {
			hostname, err := os.Hostname()
			if err == nil {
				salt = hostname
			}
		}

		return encrypt.NewLocalEncryption(encryptConfig.Password, salt), nil

	default:
		return nil, fmt.Errorf("unknown encryption provider %q", encryptConfig.Provider)
	}
}
