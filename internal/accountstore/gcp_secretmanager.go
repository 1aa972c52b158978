package accountstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/impersonate"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GCPSecretManagerType is the registry type of the GCP Secret Manager store.
const GCPSecretManagerType = "gcp.secretmanager"

// GCPSecretManagerClientAPI is the subset of the Secret Manager client the
// store uses. *secretmanager.Client satisfies it.
type GCPSecretManagerClientAPI interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	CreateSecret(ctx context.Context, req *secretmanagerpb.CreateSecretRequest, opts ...gax.CallOption) (*secretmanagerpb.Secret, error)
	AddSecretVersion(ctx context.Context, req *secretmanagerpb.AddSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.SecretVersion, error)
	DeleteSecret(ctx context.Context, req *secretmanagerpb.DeleteSecretRequest, opts ...gax.CallOption) error
}

// GCPSecretManagerStore keeps one secret per account. Each SetPassword adds a
// version and Password reads "latest".
type GCPSecretManagerStore struct {
	client    GCPSecretManagerClientAPI
	projectID string
	prefix    string
}

// GCPSecretManagerOption configures a GCPSecretManagerStore
type GCPSecretManagerOption func(*GCPSecretManagerStore)

// WithGCPSecretManagerClient sets a custom client (for testing)
func WithGCPSecretManagerClient(client GCPSecretManagerClientAPI) GCPSecretManagerOption {
	return func(s *GCPSecretManagerStore) {
		s.client = client
	}
}

// NewGCPSecretManagerStore creates the store. project_id falls back to the
// usual GCP environment variables.
func NewGCPSecretManagerStore(config map[string]interface{}, opts ...GCPSecretManagerOption) (*GCPSecretManagerStore, error) {
	projectID := stringOption(config, "project_id", "")
	if projectID == "" {
		projectID = gcpProjectFromEnv()
	}
	if projectID == "" {
		return nil, fmt.Errorf("%s: project_id is required", GCPSecretManagerType)
	}

	s := &GCPSecretManagerStore{
		projectID: projectID,
		prefix:    stringOption(config, "prefix", "dsauth-"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		client, err := createGCPSecretManagerClient(
			stringOption(config, "service_account_key_path", ""),
			stringOption(config, "impersonate_service_account", ""),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
		}
		s.client = client
	}
	return s, nil
}

// Close closes the underlying client when it holds a connection.
func (s *GCPSecretManagerStore) Close() error {
	if c, ok := s.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func createGCPSecretManagerClient(keyPath, impersonateAccount string) (*secretmanager.Client, error) {
	ctx := context.Background()

	var clientOptions []option.ClientOption
	if keyPath != "" {
		if strings.HasPrefix(keyPath, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			keyPath = filepath.Join(home, keyPath[2:])
		}
		clientOptions = append(clientOptions, option.WithCredentialsFile(keyPath))
	}
	if impersonateAccount != "" {
		ts, err := impersonate.CredentialsTokenSource(ctx, impersonate.CredentialsConfig{
			TargetPrincipal: impersonateAccount,
			Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create impersonated credentials: %w", err)
		}
		clientOptions = append(clientOptions, option.WithTokenSource(ts))
	}

	return secretmanager.NewClient(ctx, clientOptions...)
}

func gcpProjectFromEnv() string {
	for _, name := range []string{"GOOGLE_CLOUD_PROJECT", "GCLOUD_PROJECT", "GCP_PROJECT"} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// NewGCPSecretManagerStoreFactory creates a GCP Secret Manager store
func NewGCPSecretManagerStoreFactory(config map[string]interface{}) (Store, error) {
	return NewGCPSecretManagerStore(config)
}

func (s *GCPSecretManagerStore) Name() string { return GCPSecretManagerType }

func (s *GCPSecretManagerStore) secretName(accountID string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.projectID, encodedName(s.prefix, accountID))
}

func (s *GCPSecretManagerStore) Password(ctx context.Context, accountID string) (string, bool, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.secretName(accountID) + "/versions/latest",
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", false, nil
		}
		return "", false, storeError(GCPSecretManagerType, "access", accountID, transientGRPC(err), err)
	}
	if resp.GetPayload() == nil {
		return "", false, nil
	}
	return string(resp.GetPayload().GetData()), true, nil
}

// SetPassword creates the secret if needed and adds a version holding the value.
func (s *GCPSecretManagerStore) SetPassword(ctx context.Context, accountID, secret string) error {
	_, err := s.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   "projects/" + s.projectID,
		SecretId: encodedName(s.prefix, accountID),
		Secret: &secretmanagerpb.Secret{
			Replication: &secretmanagerpb.Replication{
				Replication: &secretmanagerpb.Replication_Automatic_{
					Automatic: &secretmanagerpb.Replication_Automatic{},
				},
			},
			Labels: map[string]string{"managed-by": "dsauth"},
		},
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return storeError(GCPSecretManagerType, "create", accountID, transientGRPC(err), err)
	}

	_, err = s.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  s.secretName(accountID),
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(secret)},
	})
	if err != nil {
		return storeError(GCPSecretManagerType, "add-version", accountID, transientGRPC(err), err)
	}
	return nil
}

func (s *GCPSecretManagerStore) Delete(ctx context.Context, accountID string) error {
	err := s.client.DeleteSecret(ctx, &secretmanagerpb.DeleteSecretRequest{
		Name: s.secretName(accountID),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return storeError(GCPSecretManagerType, "delete", accountID, transientGRPC(err), err)
	}
	return nil
}

func transientGRPC(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted, codes.Internal, codes.Canceled:
		return true
	default:
		return false
	}
}
