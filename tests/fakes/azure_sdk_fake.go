package fakes

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// FakeAzureKeyVaultClient is an in-memory Key Vault
type FakeAzureKeyVaultClient struct {
	mu sync.Mutex
	// Secrets maps secret names to their data
	Secrets map[string]*AzureSecretData
	// Errors maps secret names to errors to return
	Errors map[string]error
}

// AzureSecretData holds the data for a fake Key Vault secret
type AzureSecretData struct {
	Value       *string
	ContentType *string
	Attributes  *azsecrets.SecretAttributes
}

// NewFakeAzureKeyVaultClient creates a new fake Key Vault client
func NewFakeAzureKeyVaultClient() *FakeAzureKeyVaultClient {
	return &FakeAzureKeyVaultClient{
		Secrets: make(map[string]*AzureSecretData),
		Errors:  make(map[string]error),
	}
}

// AddSecretString adds a string secret
func (f *FakeAzureKeyVaultClient) AddSecretString(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Secrets[name] = newAzureSecret(value, nil)
}

// AddError configures an error for a specific secret
func (f *FakeAzureKeyVaultClient) AddError(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[name] = err
}

// ResponseError builds the error the SDK returns for an HTTP status.
func ResponseError(statusCode int, code string) error {
	return &azcore.ResponseError{StatusCode: statusCode, ErrorCode: code}
}

func newAzureSecret(value string, contentType *string) *AzureSecretData {
	now := time.Now()
	return &AzureSecretData{
		Value:       to.Ptr(value),
		ContentType: contentType,
		Attributes: &azsecrets.SecretAttributes{
			Enabled:       to.Ptr(true),
			Created:       &now,
			Updated:       &now,
			RecoveryLevel: to.Ptr("Recoverable+Purgeable"),
		},
	}
}

func secretID(name string) *azsecrets.ID {
	return (*azsecrets.ID)(to.Ptr(fmt.Sprintf("https://test-vault.vault.azure.net/secrets/%s", name)))
}

// GetSecret mocks the GetSecret operation. Versions are ignored.
func (f *FakeAzureKeyVaultClient) GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.Errors[name]; ok {
		return azsecrets.GetSecretResponse{}, err
	}
	data, ok := f.Secrets[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, ResponseError(http.StatusNotFound, "SecretNotFound")
	}
	return azsecrets.GetSecretResponse{
		Secret: azsecrets.Secret{
			ID:          secretID(name),
			Value:       data.Value,
			ContentType: data.ContentType,
			Attributes:  data.Attributes,
		},
	}, nil
}

// SetSecret mocks the SetSecret operation
func (f *FakeAzureKeyVaultClient) SetSecret(ctx context.Context, name string, parameters azsecrets.SetSecretParameters, options *azsecrets.SetSecretOptions) (azsecrets.SetSecretResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.Errors[name]; ok {
		return azsecrets.SetSecretResponse{}, err
	}
	var value string
	if parameters.Value != nil {
		value = *parameters.Value
	}
	data := newAzureSecret(value, parameters.ContentType)
	f.Secrets[name] = data
	return azsecrets.SetSecretResponse{
		Secret: azsecrets.Secret{ID: secretID(name), Value: data.Value, ContentType: data.ContentType},
	}, nil
}

// DeleteSecret mocks the DeleteSecret operation
func (f *FakeAzureKeyVaultClient) DeleteSecret(ctx context.Context, name string, options *azsecrets.DeleteSecretOptions) (azsecrets.DeleteSecretResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.Errors[name]; ok {
		return azsecrets.DeleteSecretResponse{}, err
	}
	if _, ok := f.Secrets[name]; !ok {
		return azsecrets.DeleteSecretResponse{}, ResponseError(http.StatusNotFound, "SecretNotFound")
	}
	delete(f.Secrets, name)
	return azsecrets.DeleteSecretResponse{}, nil
}
