package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/brain-io/agent/internal/common"
	"github.com/brain-io/agent/internal/models"
	"github.com/sirupsen/logrus"
)

var ErrEncryptedWithoutKey = errors.New("credentials file is encrypted but no encryption is configured")

// FileStore keeps the credential as JSON on the local disk. When an
// encryption service is supplied the JSON is sealed before it is written.
// A cleared file always holds a plaintext {} so it can be recognised without
// the key.
type FileStore struct {
	path    string
	encrypt models.EncryptionImpl
}

func NewFileStore(path string, encrypt models.EncryptionImpl) *FileStore {
	return &FileStore{
		path:    path,
		encrypt: encrypt,
	}
}

func (f *FileStore) Location() string {
	return f.path
}

func (f *FileStore) Load(ctx context.Context) (models.Credential, error) {

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Credential{}, nil
		}
		return models.Credential{}, fmt.Errorf("failed to read credentials file %s: %w", f.path, err)
	}

	if isEnvelope(data) {

		if f.encrypt == nil {
			return models.Credential{}, ErrEncryptedWithoutKey
		}

		data, err = f.encrypt.Decrypt(ctx, data)
		if err != nil {
			return models.Credential{}, fmt.Errorf("failed to decrypt credentials file %s: %w", f.path, err)
		}
	}

	credential, err := decodeCredential(data)
	if err != nil {
		return models.Credential{}, fmt.Errorf("%s: %w", f.path, err)
	}

	return credential, nil
}

func (f *FileStore) Save(ctx context.Context, credential models.Credential) error {

	if credential.IsEmpty() {
		return f.Clear(ctx)
	}

	data, err := encodeCredential(credential)
	if err != nil {
		return err
	}

	if f.encrypt != nil {
		data, err = f.encrypt.Encrypt(ctx, data)
		if err != nil {
			return fmt.Errorf("failed to encrypt credentials: %w", err)
		}
	}

	if err := common.WriteFileSecure(f.path, data); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"path":      f.path,
		"encrypted": f.encrypt != nil,
	}).Debugln("Saved credentials")

	return nil
}

func (f *FileStore) Clear(ctx context.Context) error {
	if err := common.WriteFileSecure(f.path, emptyDocument); err != nil {
		return err
	}
	logrus.WithField("path", f.path).Debugln("Cleared credentials")
	return nil
}

// isEnvelope reports whether data looks like the output of an encryption
// service rather than a plain credential document. Both the local and the
// KMS envelopes carry a ciphertext field.
func isEnvelope(data []byte) bool {

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return false
	}

	_, hasCiphertext := fields["ciphertext"]

	return hasCiphertext
}
