package encrypt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/brain-io/agent/internal/models"
	"github.com/sirupsen/logrus"
)

// KMSAPI is the subset of the KMS client the encryption service needs
type KMSAPI interface {
	Encrypt(ctx context.Context, params *kms.EncryptInput, optFns ...func(*kms.Options)) (*kms.EncryptOutput, error)
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

type awsEncryption struct {
	keyID  string
	config models.AWSSecretConfig
	client KMSAPI
}

type kmsEnvelope struct {
	KeyID      string `json:"key_id"`
	Ciphertext string `json:"ciphertext"`
}

// NewAwsEncryption seals data with a KMS key through an existing client
func NewAwsEncryption(client KMSAPI, keyID string) models.EncryptionImpl {
	return &awsEncryption{
		keyID:  keyID,
		client: client,
	}
}

// NewAwsEncryptionFromConfig builds the KMS client from the default
// credential chain on Initialize, pinned to the region and profile given.
func NewAwsEncryptionFromConfig(keyID string, config models.AWSSecretConfig) models.EncryptionImpl {
	return &awsEncryption{
		keyID:  keyID,
		config: config,
	}
}

func (a *awsEncryption) Initialize() error {

	if len(a.keyID) == 0 {
		return fmt.Errorf("credentials.encryption.key_id is required for aws encryption")
	}

	if a.client != nil {
		return nil
	}

	var opts []func(*awsconfig.LoadOptions) error

	if len(a.config.Region) > 0 {
		opts = append(opts, awsconfig.WithRegion(a.config.Region))
	}
	if len(a.config.Profile) > 0 {
		opts = append(opts, awsconfig.WithSharedConfigProfile(a.config.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	a.client = kms.NewFromConfig(awsCfg)

	logrus.WithField("key", a.keyID).Debugln("KMS encryption ready")

	return nil
}

func (a *awsEncryption) Shutdown() error {
	a.client = nil
	return nil
}

func (a *awsEncryption) Encrypt(ctx context.Context, plainText []byte) ([]byte, error) {

	if a.client == nil {
		return nil, fmt.Errorf("encryption is not initialized")
	}

	if len(plainText) == 0 {
		return nil, fmt.Errorf("plaintext cannot be empty")
	}

	out, err := a.client.Encrypt(ctx, &kms.EncryptInput{
		KeyId:     aws.String(a.keyID),
		Plaintext: plainText,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt with KMS key %s: %w", a.keyID, err)
	}

	keyID := a.keyID
	if out.KeyId != nil {
		keyID = *out.KeyId
	}

	data, err := json.Marshal(kmsEnvelope{
		KeyID:      keyID,
		Ciphertext: base64.StdEncoding.EncodeToString(out.CiphertextBlob),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal encrypted data: %w", err)
	}

	return data, nil
}

func (a *awsEncryption) Decrypt(ctx context.Context, cipherText []byte) ([]byte, error) {

	if a.client == nil {
		return nil, fmt.Errorf("encryption is not initialized")
	}

	if len(cipherText) == 0 {
		return nil, fmt.Errorf("ciphertext cannot be empty")
	}

	var env kmsEnvelope
	if err := json.Unmarshal(cipherText, &env); err != nil {
		return nil, fmt.Errorf("failed to parse encrypted data: %w", err)
	}

	blob, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	out, err := a.client.Decrypt(ctx, &kms.DecryptInput{
		CiphertextBlob: blob,
		KeyId:          aws.String(a.keyID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt with KMS key %s: %w", a.keyID, err)
	}

	return out.Plaintext, nil
}
