package accountstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// AzureKeyVaultType is the registry type of the Azure Key Vault store.
const AzureKeyVaultType = "azure.keyvault"

// AzureKeyVaultClientAPI defines the interface for Azure Key Vault operations
// This allows for mocking in tests
type AzureKeyVaultClientAPI interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
	SetSecret(ctx context.Context, name string, parameters azsecrets.SetSecretParameters, options *azsecrets.SetSecretOptions) (azsecrets.SetSecretResponse, error)
	DeleteSecret(ctx context.Context, name string, options *azsecrets.DeleteSecretOptions) (azsecrets.DeleteSecretResponse, error)
}

// AzureKeyVaultStore keeps one Key Vault secret per account.
type AzureKeyVaultStore struct {
	client AzureKeyVaultClientAPI
	prefix string
}

// AzureKeyVaultOption configures an AzureKeyVaultStore
type AzureKeyVaultOption func(*AzureKeyVaultStore)

// WithAzureKeyVaultClient sets a custom Azure Key Vault client (for testing)
func WithAzureKeyVaultClient(client AzureKeyVaultClientAPI) AzureKeyVaultOption {
	return func(s *AzureKeyVaultStore) {
		s.client = client
	}
}

// NewAzureKeyVaultStore creates the store. Credentials are picked in order:
// managed identity, client secret, then the default credential chain.
func NewAzureKeyVaultStore(config map[string]interface{}, opts ...AzureKeyVaultOption) (*AzureKeyVaultStore, error) {
	s := &AzureKeyVaultStore{prefix: stringOption(config, "prefix", "dsauth-")}
	for _, opt := range opts {
		opt(s)
	}
	if s.client != nil {
		return s, nil
	}

	vaultURL := stringOption(config, "vault_url", "")
	if vaultURL == "" {
		return nil, fmt.Errorf("%s: vault_url is required", AzureKeyVaultType)
	}

	var (
		cred azcore.TokenCredential
		err  error
	)
	tenantID := stringOption(config, "tenant_id", "")
	clientID := stringOption(config, "client_id", "")
	clientSecret := stringOption(config, "client_secret", "")
	switch {
	case boolOption(config, "use_managed_identity", false):
		var miOpts *azidentity.ManagedIdentityCredentialOptions
		if id := stringOption(config, "user_assigned_identity_id", ""); id != "" {
			miOpts = &azidentity.ManagedIdentityCredentialOptions{ID: azidentity.ClientID(id)}
		}
		cred, err = azidentity.NewManagedIdentityCredential(miOpts)
	case tenantID != "" && clientID != "" && clientSecret != "":
		cred, err = azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
	default:
		cred, err = azidentity.NewDefaultAzureCredential(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}
	s.client = client
	return s, nil
}

// NewAzureKeyVaultStoreFactory creates an Azure Key Vault store
func NewAzureKeyVaultStoreFactory(config map[string]interface{}) (Store, error) {
	return NewAzureKeyVaultStore(config)
}

func (s *AzureKeyVaultStore) Name() string { return AzureKeyVaultType }

func (s *AzureKeyVaultStore) Password(ctx context.Context, accountID string) (string, bool, error) {
	resp, err := s.client.GetSecret(ctx, encodedName(s.prefix, accountID), "", nil)
	if err != nil {
		if azureStatus(err) == http.StatusNotFound {
			return "", false, nil
		}
		return "", false, storeError(AzureKeyVaultType, "get", accountID, transientAzure(err), err)
	}
	if resp.Value == nil {
		return "", false, nil
	}
	return *resp.Value, true, nil
}

func (s *AzureKeyVaultStore) SetPassword(ctx context.Context, accountID, secret string) error {
	contentType := "application/x-dsauth-secret"
	_, err := s.client.SetSecret(ctx, encodedName(s.prefix, accountID), azsecrets.SetSecretParameters{
		Value:       &secret,
		ContentType: &contentType,
	}, nil)
	if err != nil {
		return storeError(AzureKeyVaultType, "set", accountID, transientAzure(err), err)
	}
	return nil
}

func (s *AzureKeyVaultStore) Delete(ctx context.Context, accountID string) error {
	_, err := s.client.DeleteSecret(ctx, encodedName(s.prefix, accountID), nil)
	if err != nil {
		if azureStatus(err) == http.StatusNotFound {
			return ErrNotFound
		}
		return storeError(AzureKeyVaultType, "delete", accountID, transientAzure(err), err)
	}
	return nil
}

func azureStatus(err error) int {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}

// transientAzure treats throttling, server errors and transport failures as
// retryable. Other HTTP statuses are not.
func transientAzure(err error) bool {
	code := azureStatus(err)
	return code == 0 || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
