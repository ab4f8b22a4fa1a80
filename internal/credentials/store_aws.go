package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/brain-io/agent/internal/models"
	"github.com/sirupsen/logrus"
)

// SecretsManagerAPI is the subset of the Secrets Manager client the store
// needs.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
}

// AWSStore keeps the credential as a JSON secret string in AWS Secrets
// Manager. The secret must already exist; the store only writes new
// versions of it.
type AWSStore struct {
	client   SecretsManagerAPI
	secretID string
}

func NewAWSStore(client SecretsManagerAPI, secretID string) *AWSStore {
	return &AWSStore{
		client:   client,
		secretID: secretID,
	}
}

// NewAWSStoreFromConfig builds a Secrets Manager client from the default
// credential chain, optionally pinned to a region and shared profile.
func NewAWSStoreFromConfig(ctx context.Context, cfg models.AWSSecretConfig) (*AWSStore, error) {

	if len(cfg.SecretID) == 0 {
		return nil, fmt.Errorf("credentials.aws.secret_id is required for the aws credential store")
	}

	var opts []func(*awsconfig.LoadOptions) error

	if len(cfg.Region) > 0 {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if len(cfg.Profile) > 0 {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewAWSStore(secretsmanager.NewFromConfig(awsCfg), cfg.SecretID), nil
}

func (a *AWSStore) Location() string {
	return fmt.Sprintf("aws-secretsmanager://%s", a.secretID)
}

func (a *AWSStore) Load(ctx context.Context) (models.Credential, error) {

	out, err := a.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(a.secretID),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return models.Credential{}, nil
		}
		return models.Credential{}, fmt.Errorf("failed to fetch secret [%s]: %w", a.secretID, err)
	}

	if out.SecretString == nil {
		return models.Credential{}, nil
	}

	credential, err := decodeCredential([]byte(*out.SecretString))
	if err != nil {
		return models.Credential{}, fmt.Errorf("invalid secret format for [%s]: %w", a.secretID, err)
	}

	return credential, nil
}

func (a *AWSStore) Save(ctx context.Context, credential models.Credential) error {

	data, err := encodeCredential(credential)
	if err != nil {
		return err
	}

	return a.put(ctx, data)
}

func (a *AWSStore) Clear(ctx context.Context) error {
	return a.put(ctx, emptyDocument)
}

func (a *AWSStore) put(ctx context.Context, data []byte) error {

	_, err := a.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(a.secretID),
		SecretString: aws.String(string(data)),
	})
	if err != nil {
		return fmt.Errorf("failed to write secret [%s]: %w", a.secretID, err)
	}

	logrus.WithField("secret", a.secretID).Debugln("Wrote credentials secret")

	return nil
}
