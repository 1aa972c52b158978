package accountstore

import (
	"context"
	"errors"

	"github.com/zalando/go-keyring"
)

// KeyringType is the registry type of the OS keyring store.
const KeyringType = "keyring"

// KeyringClient abstracts OS keyring operations for testing
type KeyringClient interface {
	Get(service, user string) (string, error)
	Set(service, user, password string) error
	Delete(service, user string) error
}

// osKeyring forwards to go-keyring: macOS Keychain, Secret Service on Linux,
// Windows Credential Manager.
type osKeyring struct{}

func (osKeyring) Get(service, user string) (string, error) { return keyring.Get(service, user) }
func (osKeyring) Set(service, user, password string) error { return keyring.Set(service, user, password) }
func (osKeyring) Delete(service, user string) error        { return keyring.Delete(service, user) }

// KeyringStore stores one keyring item per account under a fixed service name.
type KeyringStore struct {
	service string
	client  KeyringClient
}

// KeyringOption configures a KeyringStore
type KeyringOption func(*KeyringStore)

// WithKeyringClient sets a custom keyring client (for testing)
func WithKeyringClient(c KeyringClient) KeyringOption {
	return func(s *KeyringStore) {
		s.client = c
	}
}

// NewKeyringStore creates a keyring store for service.
func NewKeyringStore(service string, opts ...KeyringOption) *KeyringStore {
	if service == "" {
		service = "dsauth"
	}
	s := &KeyringStore{service: service, client: osKeyring{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewKeyringStoreFactory reads the "service" key.
func NewKeyringStoreFactory(config map[string]interface{}) (Store, error) {
	return NewKeyringStore(stringOption(config, "service", "dsauth")), nil
}

func (s *KeyringStore) Name() string { return KeyringType }

func (s *KeyringStore) Password(_ context.Context, accountID string) (string, bool, error) {
	v, err := s.client.Get(s.service, accountID)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, storeError(KeyringType, "get", accountID, true, err)
	}
	return v, true, nil
}

func (s *KeyringStore) SetPassword(_ context.Context, accountID, secret string) error {
	if err := s.client.Set(s.service, accountID, secret); err != nil {
		return storeError(KeyringType, "set", accountID, !errors.Is(err, keyring.ErrSetDataTooBig), err)
	}
	return nil
}

func (s *KeyringStore) Delete(_ context.Context, accountID string) error {
	if err := s.client.Delete(s.service, accountID); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return storeError(KeyringType, "delete", accountID, true, err)
	}
	return nil
}
