// Package accountstore persists the protected secret of each account.
//
// Stores hold the "<scheme>:<blob>" string produced by the secret codec and
// never see plaintext credentials. Every backend maps "not found" to
// ("", false, nil) and wraps transport failures so that token acquisition
// classifies them as retryable.
package accountstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/systmms/dsauth/pkg/token"
)

// Store reads and writes protected secrets by account id.
type Store interface {
	Name() string
	Password(ctx context.Context, accountID string) (string, bool, error)
	SetPassword(ctx context.Context, accountID, secret string) error
	Delete(ctx context.Context, accountID string) error
}

// Ephemeral is implemented by stores whose contents do not outlive the
// process.
type Ephemeral interface {
	Ephemeral() bool
}

// IsPersistent reports whether secrets written to s survive the process.
func IsPersistent(s Store) bool {
	e, ok := s.(Ephemeral)
	return !ok || !e.Ephemeral()
}

// ErrNotFound is returned by Delete for unknown accounts.
var ErrNotFound = errors.New("account not found")

// StoreError wraps a backend failure. Transient errors also match token.ErrIO.
type StoreError struct {
	Store     string
	Op        string
	AccountID string
	Transient bool
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Store, e.Op, e.AccountID, e.Err)
}

func (e *StoreError) Unwrap() []error {
	if e.Transient {
		return []error{e.Err, token.ErrIO}
	}
	return []error{e.Err}
}

func storeError(store, op, accountID string, transient bool, err error) error {
	return &StoreError{Store: store, Op: op, AccountID: accountID, Transient: transient, Err: err}
}

// Factory creates a store from its inline configuration.
type Factory func(config map[string]interface{}) (Store, error)

// Registry manages store creation
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates a registry with the built-in backends
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}

	r.RegisterFactory(MemoryType, NewMemoryStoreFactory)
	r.RegisterFactory(KeyringType, NewKeyringStoreFactory)
	r.RegisterFactory(SQLType, NewSQLStoreFactory)
	r.RegisterFactory(SecretsManagerType, NewSecretsManagerStoreFactory)
	r.RegisterFactory(SSMType, NewSSMStoreFactory)
	r.RegisterFactory(GCPSecretManagerType, NewGCPSecretManagerStoreFactory)
	r.RegisterFactory(AzureKeyVaultType, NewAzureKeyVaultStoreFactory)
	r.RegisterFactory(AkeylessType, NewAkeylessStoreFactory)

	return r
}

// RegisterFactory registers a factory for a store type
func (r *Registry) RegisterFactory(storeType string, f Factory) {
	r.factories[storeType] = f
}

// Create builds a store of the given type
func (r *Registry) Create(storeType string, config map[string]interface{}) (Store, error) {
	f, ok := r.factories[storeType]
	if !ok {
		return nil, fmt.Errorf("unknown account store type: %s", storeType)
	}
	if config == nil {
		config = map[string]interface{}{}
	}
	return f(config)
}

// SupportedTypes returns the registered store types, sorted
func (r *Registry) SupportedTypes() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// IsSupported checks if a store type is registered
func (r *Registry) IsSupported(storeType string) bool {
	_, ok := r.factories[storeType]
	return ok
}

func stringOption(config map[string]interface{}, key, fallback string) string {
	if v, ok := config[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func boolOption(config map[string]interface{}, key string, fallback bool) bool {
	if v, ok := config[key].(bool); ok {
		return v
	}
	return fallback
}
