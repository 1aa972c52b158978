package fakes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/systmms/dsauth/internal/accountstore"
)

// FakeAkeylessClient is an in-memory Akeyless gateway
type FakeAkeylessClient struct {
	mu sync.Mutex
	// Items maps item paths to static secret values
	Items map[string]string
	// Errors maps item paths to errors to return from every operation
	Errors map[string]error
	// AuthErr is returned by Authenticate when set
	AuthErr error
	// TTL is the lifetime reported for issued tokens
	TTL time.Duration
	// Auths counts calls to Authenticate
	Auths int
	// Tokens records the token passed to each item operation
	Tokens []string
}

// NewFakeAkeylessClient creates a new fake Akeyless client
func NewFakeAkeylessClient() *FakeAkeylessClient {
	return &FakeAkeylessClient{
		Items:  make(map[string]string),
		Errors: make(map[string]error),
		TTL:    time.Hour,
	}
}

// AddError configures an error for a specific item path
func (f *FakeAkeylessClient) AddError(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[path] = err
}

func (f *FakeAkeylessClient) Authenticate(ctx context.Context) (string, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AuthErr != nil {
		return "", 0, f.AuthErr
	}
	f.Auths++
	return fmt.Sprintf("t-%d", f.Auths), f.TTL, nil
}

func (f *FakeAkeylessClient) begin(token, path string) error {
	f.mu.Lock()
	f.Tokens = append(f.Tokens, token)
	return f.Errors[path]
}

func (f *FakeAkeylessClient) GetSecret(ctx context.Context, token, path string) (string, error) {
	err := f.begin(token, path)
	defer f.mu.Unlock()
	if err != nil {
		return "", err
	}
	v, ok := f.Items[path]
	if !ok {
		return "", accountstore.ErrAkeylessItemNotFound
	}
	return v, nil
}

func (f *FakeAkeylessClient) CreateSecret(ctx context.Context, token, path, value string) error {
	err := f.begin(token, path)
	defer f.mu.Unlock()
	if err != nil {
		return err
	}
	f.Items[path] = value
	return nil
}

func (f *FakeAkeylessClient) UpdateSecret(ctx context.Context, token, path, value string) error {
	err := f.begin(token, path)
	defer f.mu.Unlock()
	if err != nil {
		return err
	}
	if _, ok := f.Items[path]; !ok {
		return accountstore.ErrAkeylessItemNotFound
	}
	f.Items[path] = value
	return nil
}

func (f *FakeAkeylessClient) DeleteItem(ctx context.Context, token, path string) error {
	err := f.begin(token, path)
	defer f.mu.Unlock()
	if err != nil {
		return err
	}
	if _, ok := f.Items[path]; !ok {
		return accountstore.ErrAkeylessItemNotFound
	}
	delete(f.Items, path)
	return nil
}
