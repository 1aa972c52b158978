package fakes

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// FakeSecretsManagerClient is an in-memory Secrets Manager
type FakeSecretsManagerClient struct {
	mu sync.Mutex
	// Secrets maps secret names to their current string value
	Secrets map[string]string
	// Errors maps secret names to errors to return from every operation
	Errors map[string]error
	// Calls records operation names in order
	Calls []string
}

// NewFakeSecretsManagerClient creates a new fake Secrets Manager client
func NewFakeSecretsManagerClient() *FakeSecretsManagerClient {
	return &FakeSecretsManagerClient{
		Secrets: make(map[string]string),
		Errors:  make(map[string]error),
	}
}

// AddSecretString adds a string secret
func (f *FakeSecretsManagerClient) AddSecretString(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Secrets[name] = value
}

// AddError configures an error for a specific secret
func (f *FakeSecretsManagerClient) AddError(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[name] = err
}

func (f *FakeSecretsManagerClient) begin(op, name string) error {
	f.mu.Lock()
	f.Calls = append(f.Calls, op)
	return f.Errors[name]
}

func notFound(name string) error {
	return &types.ResourceNotFoundException{
		Message: aws.String(fmt.Sprintf("Secrets Manager can't find the specified secret: %s", name)),
	}
}

// GetSecretValue mocks the GetSecretValue operation
func (f *FakeSecretsManagerClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	name := aws.ToString(params.SecretId)
	err := f.begin("GetSecretValue", name)
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	value, ok := f.Secrets[name]
	if !ok {
		return nil, notFound(name)
	}
	return &secretsmanager.GetSecretValueOutput{
		ARN:           aws.String(fmt.Sprintf("arn:aws:secretsmanager:us-east-1:123456789012:secret:%s", name)),
		Name:          params.SecretId,
		SecretString:  aws.String(value),
		VersionStages: []string{"AWSCURRENT"},
	}, nil
}

// PutSecretValue mocks the PutSecretValue operation
func (f *FakeSecretsManagerClient) PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error) {
	name := aws.ToString(params.SecretId)
	err := f.begin("PutSecretValue", name)
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if _, ok := f.Secrets[name]; !ok {
		return nil, notFound(name)
	}
	f.Secrets[name] = aws.ToString(params.SecretString)
	return &secretsmanager.PutSecretValueOutput{Name: params.SecretId}, nil
}

// CreateSecret mocks the CreateSecret operation
func (f *FakeSecretsManagerClient) CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	name := aws.ToString(params.Name)
	err := f.begin("CreateSecret", name)
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if _, ok := f.Secrets[name]; ok {
		return nil, &types.ResourceExistsException{Message: aws.String("secret already exists: " + name)}
	}
	f.Secrets[name] = aws.ToString(params.SecretString)
	return &secretsmanager.CreateSecretOutput{Name: params.Name}, nil
}

// DeleteSecret mocks the DeleteSecret operation
func (f *FakeSecretsManagerClient) DeleteSecret(ctx context.Context, params *secretsmanager.DeleteSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error) {
	name := aws.ToString(params.SecretId)
	err := f.begin("DeleteSecret", name)
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if _, ok := f.Secrets[name]; !ok {
		return nil, notFound(name)
	}
	delete(f.Secrets, name)
	return &secretsmanager.DeleteSecretOutput{Name: params.SecretId}, nil
}

// FakeSSMClient is an in-memory SSM Parameter Store
type FakeSSMClient struct {
	mu sync.Mutex
	// Parameters maps parameter names to values
	Parameters map[string]string
	// Types records the type each parameter was written with
	Types map[string]ssmtypes.ParameterType
	// Errors maps parameter names to errors to return
	Errors map[string]error
}

// NewFakeSSMClient creates a new fake SSM client
func NewFakeSSMClient() *FakeSSMClient {
	return &FakeSSMClient{
		Parameters: make(map[string]string),
		Types:      make(map[string]ssmtypes.ParameterType),
		Errors:     make(map[string]error),
	}
}

// AddParameter adds a SecureString parameter
func (f *FakeSSMClient) AddParameter(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Parameters[name] = value
	f.Types[name] = ssmtypes.ParameterTypeSecureString
}

// AddError configures an error for a specific parameter
func (f *FakeSSMClient) AddError(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[name] = err
}

func parameterNotFound() error {
	return &ssmtypes.ParameterNotFound{Message: aws.String("ParameterNotFound")}
}

// GetParameter mocks the GetParameter operation
func (f *FakeSSMClient) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := aws.ToString(params.Name)
	if err, ok := f.Errors[name]; ok {
		return nil, err
	}
	value, ok := f.Parameters[name]
	if !ok {
		return nil, parameterNotFound()
	}
	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{
			Name:    params.Name,
			Value:   aws.String(value),
			Type:    f.Types[name],
			Version: 1,
		},
	}, nil
}

// PutParameter mocks the PutParameter operation
func (f *FakeSSMClient) PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := aws.ToString(params.Name)
	if err, ok := f.Errors[name]; ok {
		return nil, err
	}
	if _, exists := f.Parameters[name]; exists && !aws.ToBool(params.Overwrite) {
		return nil, &ssmtypes.ParameterAlreadyExists{Message: aws.String("ParameterAlreadyExists")}
	}
	f.Parameters[name] = aws.ToString(params.Value)
	f.Types[name] = params.Type
	return &ssm.PutParameterOutput{Version: 1}, nil
}

// DeleteParameter mocks the DeleteParameter operation
func (f *FakeSSMClient) DeleteParameter(ctx context.Context, params *ssm.DeleteParameterInput, optFns ...func(*ssm.Options)) (*ssm.DeleteParameterOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := aws.ToString(params.Name)
	if err, ok := f.Errors[name]; ok {
		return nil, err
	}
	if _, ok := f.Parameters[name]; !ok {
		return nil, parameterNotFound()
	}
	delete(f.Parameters, name)
	delete(f.Types, name)
	return &ssm.DeleteParameterOutput{}, nil
}
