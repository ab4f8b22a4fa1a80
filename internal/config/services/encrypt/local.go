package encrypt

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/brain-io/agent/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/pbkdf2"
)

const keyIterations = 100000

type localEncryption struct {
	password string
	salt     string
	key      []byte
	gcm      cipher.AEAD
}

type envelope struct {
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// NewLocalEncryption seals data with AES-256-GCM under a key derived from
// password and salt. Initialize must be called before use.
func NewLocalEncryption(password, salt string) models.EncryptionImpl {
	return &localEncryption{
		password: password,
		salt:     salt,
	}
}

// Derive a 256-bit key from password using PBKDF2
func deriveKey(password string, salt string) []byte {
	return pbkdf2.Key([]byte(password), []byte(salt), keyIterations, 32, sha256.New)
}

func (l *localEncryption) Initialize() error {

	if len(l.password) == 0 {
		return fmt.Errorf("an encryption password is required")
	}

	if len(l.salt) == 0 {
		logrus.Warningln("Local encryption configured without a salt")
	}

	l.key = deriveKey(l.password, l.salt)

	block, err := aes.NewCipher(l.key)
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}

	l.gcm, err = cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("failed to create GCM: %w", err)
	}

	return nil
}

func (l *localEncryption) Shutdown() error {
	for i := range l.key {
		l.key[i] = 0
	}
	l.gcm = nil
	return nil
}

func (l *localEncryption) Encrypt(ctx context.Context, plainText []byte) ([]byte, error) {

	if l.gcm == nil {
		return nil, fmt.Errorf("encryption is not initialized")
	}

	if len(plainText) == 0 {
		return nil, fmt.Errorf("plaintext cannot be empty")
	}

	nonce := make([]byte, l.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := l.gcm.Seal(nil, nonce, plainText, nil)

	data, err := json.Marshal(envelope{
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(sealed),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal encrypted data: %w", err)
	}

	return data, nil
}

func (l *localEncryption) Decrypt(ctx context.Context, cipherText []byte) ([]byte, error) {

	if l.gcm == nil {
		return nil, fmt.Errorf("encryption is not initialized")
	}

	if len(cipherText) == 0 {
		return nil, fmt.Errorf("ciphertext cannot be empty")
	}

	var env envelope
	if err := json.Unmarshal(cipherText, &env); err != nil {
		return nil, fmt.Errorf("failed to parse encrypted data: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}

	if len(nonce) != l.gcm.NonceSize() {
		return nil, fmt.Errorf("invalid nonce length %d", len(nonce))
	}

	sealed, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	plainText, err := l.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		logrus.WithError(err).Debugln("Failed to open encrypted data")
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plainText, nil
}
