package fakes

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// FakeGCPSecretManagerClient is an in-memory Secret Manager
type FakeGCPSecretManagerClient struct {
	mu sync.Mutex
	// Secrets maps full resource names (projects/X/secrets/Y) to their data
	Secrets map[string]*GCPSecretData
	// Errors maps resource names to errors to return. Version requests are
	// matched on the secret name.
	Errors map[string]error
}

// GCPSecretData holds a secret and its versions, oldest first
type GCPSecretData struct {
	Name       string
	CreateTime *timestamppb.Timestamp
	Labels     map[string]string
	Versions   [][]byte
}

// NewFakeGCPSecretManagerClient creates a new fake Secret Manager client
func NewFakeGCPSecretManagerClient() *FakeGCPSecretManagerClient {
	return &FakeGCPSecretManagerClient{
		Secrets: make(map[string]*GCPSecretData),
		Errors:  make(map[string]error),
	}
}

// AddSecretVersionData adds a secret with a single version
func (f *FakeGCPSecretManagerClient) AddSecretVersionData(projectID, secretID string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := fmt.Sprintf("projects/%s/secrets/%s", projectID, secretID)
	f.Secrets[name] = &GCPSecretData{
		Name:       name,
		CreateTime: timestamppb.Now(),
		Versions:   [][]byte{data},
	}
}

// AddError configures an error for a resource name
func (f *FakeGCPSecretManagerClient) AddError(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[name] = err
}

// splitVersion splits "projects/p/secrets/s/versions/v" into secret and version.
func splitVersion(name string) (string, string) {
	if i := strings.Index(name, "/versions/"); i >= 0 {
		return name[:i], name[i+len("/versions/"):]
	}
	return name, ""
}

// AccessSecretVersion mocks the AccessSecretVersion operation. Only "latest"
// and 1-based numeric versions are understood.
func (f *FakeGCPSecretManagerClient) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	secretName, version := splitVersion(req.GetName())
	if err, ok := f.Errors[secretName]; ok {
		return nil, err
	}
	data, ok := f.Secrets[secretName]
	if !ok || len(data.Versions) == 0 {
		return nil, status.Errorf(codes.NotFound, "Secret [%s] not found or has no versions", secretName)
	}

	idx := len(data.Versions)
	if version != "latest" && version != "" {
		if _, err := fmt.Sscanf(version, "%d", &idx); err != nil || idx < 1 || idx > len(data.Versions) {
			return nil, status.Errorf(codes.NotFound, "Secret Version [%s] not found", req.GetName())
		}
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Name:    fmt.Sprintf("%s/versions/%d", secretName, idx),
		Payload: &secretmanagerpb.SecretPayload{Data: data.Versions[idx-1]},
	}, nil
}

// CreateSecret mocks the CreateSecret operation
func (f *FakeGCPSecretManagerClient) CreateSecret(ctx context.Context, req *secretmanagerpb.CreateSecretRequest, opts ...gax.CallOption) (*secretmanagerpb.Secret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := req.GetParent() + "/secrets/" + req.GetSecretId()
	if err, ok := f.Errors[name]; ok {
		return nil, err
	}
	if _, exists := f.Secrets[name]; exists {
		return nil, status.Errorf(codes.AlreadyExists, "Secret [%s] already exists", name)
	}
	data := &GCPSecretData{Name: name, CreateTime: timestamppb.Now(), Labels: req.GetSecret().GetLabels()}
	f.Secrets[name] = data
	return &secretmanagerpb.Secret{Name: name, CreateTime: data.CreateTime, Labels: data.Labels}, nil
}

// AddSecretVersion mocks the AddSecretVersion operation
func (f *FakeGCPSecretManagerClient) AddSecretVersion(ctx context.Context, req *secretmanagerpb.AddSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.SecretVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := req.GetParent()
	if err, ok := f.Errors[name]; ok {
		return nil, err
	}
	data, ok := f.Secrets[name]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "Secret [%s] not found", name)
	}
	data.Versions = append(data.Versions, req.GetPayload().GetData())
	return &secretmanagerpb.SecretVersion{
		Name:       fmt.Sprintf("%s/versions/%d", name, len(data.Versions)),
		CreateTime: timestamppb.Now(),
		State:      secretmanagerpb.SecretVersion_ENABLED,
	}, nil
}

// DeleteSecret mocks the DeleteSecret operation
func (f *FakeGCPSecretManagerClient) DeleteSecret(ctx context.Context, req *secretmanagerpb.DeleteSecretRequest, opts ...gax.CallOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := req.GetName()
	if err, ok := f.Errors[name]; ok {
		return err
	}
	if _, ok := f.Secrets[name]; !ok {
		return status.Errorf(codes.NotFound, "Secret [%s] not found", name)
	}
	delete(f.Secrets, name)
	return nil
}
