package accountstore

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// SecretsManagerType is the registry type of the AWS Secrets Manager store.
const SecretsManagerType = "aws.secretsmanager"

// SecretsManagerClientAPI defines the interface for AWS Secrets Manager operations
// This allows for mocking in tests
type SecretsManagerClientAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	DeleteSecret(ctx context.Context, params *secretsmanager.DeleteSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error)
}

// SecretsManagerStore keeps one secret per account, named prefix + account id.
type SecretsManagerStore struct {
	client SecretsManagerClientAPI
	prefix string
}

// SecretsManagerOption configures a SecretsManagerStore
type SecretsManagerOption func(*SecretsManagerStore)

// WithSecretsManagerClient sets a custom Secrets Manager client (for testing)
func WithSecretsManagerClient(client SecretsManagerClientAPI) SecretsManagerOption {
	return func(s *SecretsManagerStore) {
		s.client = client
	}
}

// NewSecretsManagerStore creates the store, building a real client unless one
// is injected.
func NewSecretsManagerStore(config map[string]interface{}, opts ...SecretsManagerOption) (*SecretsManagerStore, error) {
	settings := parseAWSSettings(config, "dsauth/")
	s := &SecretsManagerStore{prefix: settings.Prefix}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		cfg, err := loadAWSConfig(context.Background(), settings)
		if err != nil {
			return nil, err
		}
		var clientOpts []func(*secretsmanager.Options)
		if settings.Endpoint != "" {
			endpoint := settings.Endpoint
			clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		s.client = secretsmanager.NewFromConfig(cfg, clientOpts...)
	}
	return s, nil
}

// NewSecretsManagerStoreFactory creates a Secrets Manager store
func NewSecretsManagerStoreFactory(config map[string]interface{}) (Store, error) {
	return NewSecretsManagerStore(config)
}

func (s *SecretsManagerStore) Name() string { return SecretsManagerType }

func (s *SecretsManagerStore) Password(ctx context.Context, accountID string) (string, bool, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.prefix + accountID),
	})
	if err != nil {
		if isResourceNotFound(err) {
			return "", false, nil
		}
		return "", false, storeError(SecretsManagerType, "get", accountID, !isAWSAuthError(err), err)
	}
	if out.SecretString == nil {
		return "", false, nil
	}
	return *out.SecretString, true, nil
}

// SetPassword writes a new version, creating the secret on first use.
func (s *SecretsManagerStore) SetPassword(ctx context.Context, accountID, secret string) error {
	name := s.prefix + accountID
	_, err := s.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(name),
		SecretString: aws.String(secret),
	})
	if err == nil {
		return nil
	}
	if !isResourceNotFound(err) {
		return storeError(SecretsManagerType, "put", accountID, !isAWSAuthError(err), err)
	}

	_, err = s.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(name),
		SecretString: aws.String(secret),
		Description:  aws.String("dsauth protected account secret"),
	})
	if err != nil {
		return storeError(SecretsManagerType, "create", accountID, !isAWSAuthError(err), err)
	}
	return nil
}

func (s *SecretsManagerStore) Delete(ctx context.Context, accountID string) error {
	_, err := s.client.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:                   aws.String(s.prefix + accountID),
		ForceDeleteWithoutRecovery: aws.Bool(true),
	})
	if err != nil {
		if isResourceNotFound(err) {
			return ErrNotFound
		}
		return storeError(SecretsManagerType, "delete", accountID, !isAWSAuthError(err), err)
	}
	return nil
}

func isResourceNotFound(err error) bool {
	var notFound *types.ResourceNotFoundException
	return errors.As(err, &notFound)
}
