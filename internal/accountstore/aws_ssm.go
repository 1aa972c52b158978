package accountstore

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// SSMType is the registry type of the AWS SSM Parameter Store store.
const SSMType = "aws.ssm"

// SSMClientAPI defines the interface for AWS SSM Parameter Store operations
// This allows for mocking in tests
type SSMClientAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
	DeleteParameter(ctx context.Context, params *ssm.DeleteParameterInput, optFns ...func(*ssm.Options)) (*ssm.DeleteParameterOutput, error)
}

// SSMStore keeps one SecureString parameter per account.
type SSMStore struct {
	client   SSMClientAPI
	prefix   string
	kmsKeyID string
}

// SSMOption configures an SSMStore
type SSMOption func(*SSMStore)

// WithSSMClient sets a custom SSM client (for testing)
func WithSSMClient(client SSMClientAPI) SSMOption {
	return func(s *SSMStore) {
		s.client = client
	}
}

// NewSSMStore creates the store. Parameters are named prefix + account id.
func NewSSMStore(config map[string]interface{}, opts ...SSMOption) (*SSMStore, error) {
	settings := parseAWSSettings(config, "/dsauth/")
	s := &SSMStore{
		prefix:   settings.Prefix,
		kmsKeyID: stringOption(config, "kms_key_id", ""),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		cfg, err := loadAWSConfig(context.Background(), settings)
		if err != nil {
			return nil, err
		}
		var clientOpts []func(*ssm.Options)
		if settings.Endpoint != "" {
			endpoint := settings.Endpoint
			clientOpts = append(clientOpts, func(o *ssm.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		s.client = ssm.NewFromConfig(cfg, clientOpts...)
	}
	return s, nil
}

// NewSSMStoreFactory creates an SSM store
func NewSSMStoreFactory(config map[string]interface{}) (Store, error) {
	return NewSSMStore(config)
}

func (s *SSMStore) Name() string { return SSMType }

func (s *SSMStore) Password(ctx context.Context, accountID string) (string, bool, error) {
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(s.prefix + accountID),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		if isParameterNotFound(err) {
			return "", false, nil
		}
		return "", false, storeError(SSMType, "get", accountID, !isAWSAuthError(err), err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", false, nil
	}
	return *out.Parameter.Value, true, nil
}

func (s *SSMStore) SetPassword(ctx context.Context, accountID, secret string) error {
	input := &ssm.PutParameterInput{
		Name:      aws.String(s.prefix + accountID),
		Value:     aws.String(secret),
		Type:      types.ParameterTypeSecureString,
		Overwrite: aws.Bool(true),
	}
	if s.kmsKeyID != "" {
		input.KeyId = aws.String(s.kmsKeyID)
	}
	if _, err := s.client.PutParameter(ctx, input); err != nil {
		return storeError(SSMType, "put", accountID, !isAWSAuthError(err), err)
	}
	return nil
}

func (s *SSMStore) Delete(ctx context.Context, accountID string) error {
	_, err := s.client.DeleteParameter(ctx, &ssm.DeleteParameterInput{
		Name: aws.String(s.prefix + accountID),
	})
	if err != nil {
		if isParameterNotFound(err) {
			return ErrNotFound
		}
		return storeError(SSMType, "delete", accountID, !isAWSAuthError(err), err)
	}
	return nil
}

func isParameterNotFound(err error) bool {
	var notFound *types.ParameterNotFound
	return errors.As(err, &notFound)
}
