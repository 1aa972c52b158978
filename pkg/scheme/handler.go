package scheme

import (
	"context"
	"strings"

	"github.com/systmms/dsauth/internal/logging"
	"github.com/systmms/dsauth/internal/metrics"
	"github.com/systmms/dsauth/pkg/secret"
	"github.com/systmms/dsauth/pkg/token"
)

// Account identifies an account in the credential store.
type Account struct {
	ID   string
	Type string
}

// PasswordStore reads the protected secret persisted for an account. found is
// false when nothing is stored.
type PasswordStore interface {
	Password(ctx context.Context, accountID string) (secret string, found bool, err error)
}

// Handler implements one authentication scheme.
type Handler interface {
	// Tag returns the scheme tag the handler is registered under.
	Tag() string
	Label() string

	StoredKind() secret.Kind
	TokenKind() secret.Kind

	// TokenFromAccount builds a session token from the account's stored
	// secret. It may block.
	TokenFromAccount(ctx context.Context, account Account) (*secret.Protected, error)
	TokenFromStoredSecret(stored *secret.Protected) (*secret.Protected, error)

	// StoredSecretFromAccount returns the unprotected stored secret.
	StoredSecretFromAccount(ctx context.Context, account Account) (*secret.Protected, error)

	NeedsRefresh(tok *secret.Protected) bool

	// Acquire materializes a session token through the environment's token
	// acquirer. It blocks and retries.
	Acquire(ctx context.Context, account Account) (*secret.Protected, error)
}

// Environment carries the collaborators handlers are built with.
type Environment struct {
	Store    PasswordStore
	Codec    *secret.Codec
	Acquirer *token.Acquirer
	Labels   map[string]string
	Logger   *logging.Logger
	Metrics  *metrics.Recorder
}

func (env Environment) withDefaults() Environment {
	if env.Logger == nil {
		env.Logger = logging.Discard()
	}
	if env.Metrics == nil {
		env.Metrics = metrics.New()
	}
	return env
}

func (env Environment) label(tag, fallback string) string {
	if l, ok := env.Labels[tag]; ok && l != "" {
		return l
	}
	return fallback
}

// Factory builds the handler for tag.
type Factory func(tag string, env Environment) (Handler, error)

// TokenType returns the auth token type for a tag, "<tag>:".
func TokenType(tag string) string {
	return tag + ":"
}

// TagOf extracts the URI scheme of an auth token type.
func TagOf(tokenType string) (string, bool) {
	i := strings.IndexByte(tokenType, ':')
	if i <= 0 {
		return "", false
	}
	return tokenType[:i], true
}
