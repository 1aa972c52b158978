package scheme_test

import (
	"context"
	"sync"
	"time"

	"github.com/systmms/dsauth/pkg/obfuscation"
	"github.com/systmms/dsauth/pkg/scheme"
	"github.com/systmms/dsauth/pkg/secret"
	"github.com/systmms/dsauth/pkg/token"
)

type mapStore struct {
	mu      sync.Mutex
	secrets map[string]string
	err     error
	reads   int
}

func newMapStore() *mapStore {
	return &mapStore{secrets: map[string]string{}}
}

func (s *mapStore) Password(_ context.Context, accountID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.err != nil {
		return "", false, s.err
	}
	v, ok := s.secrets[accountID]
	return v, ok, nil
}

func (s *mapStore) put(accountID, v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[accountID] = v
}

func testCodec() *secret.Codec {
	return secret.NewCodec(obfuscation.NewXOR())
}

func noSleep() token.Option {
	return token.WithSleeper(token.SleeperFunc(func(time.Duration) {}))
}

// newTestRegistry wires the default bindings to store. The acquirer fetches
// tokens straight from the registry's handlers, standing in for the
// authenticator service.
func newTestRegistry(store scheme.PasswordStore, opts ...scheme.RegistryOption) (*scheme.Registry, error) {
	var reg *scheme.Registry
	fetch := token.FetcherFunc(func(ctx context.Context, accountID, tokenType string, _ bool) (string, error) {
		h, err := reg.LookupTokenType(tokenType)
		if err != nil {
			return "", &token.AuthenticatorError{Reason: "unknown auth token type", Err: err}
		}
		tok, err := h.TokenFromAccount(ctx, scheme.Account{ID: accountID})
		if err != nil {
			return "", &token.AuthenticatorError{Reason: "cannot build token", Err: err}
		}
		return tok.String(), nil
	})

	env := scheme.Environment{
		Store:    store,
		Codec:    testCodec(),
		Acquirer: token.NewAcquirer(fetch, noSleep()),
		Labels:   map[string]string{"password": "Username & Password"},
	}
	var err error
	reg, err = scheme.NewRegistry(env, scheme.DefaultBindings(), opts...)
	return reg, err
}

func sealStored(username, password, realm *string) string {
	p, err := testCodec().Seal(secret.UserCredentialsSecret, username, password, realm)
	if err != nil {
		panic(err)
	}
	return p.String()
}
