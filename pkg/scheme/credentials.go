package scheme

import (
	"context"
	"errors"
	"fmt"

	"github.com/systmms/dsauth/internal/logging"
	"github.com/systmms/dsauth/internal/metrics"
	"github.com/systmms/dsauth/pkg/secret"
	"github.com/systmms/dsauth/pkg/token"
)

// Credentials handles username, password and realm authentication. The stored
// password is the durable secret, so tokens never need a refresh.
type Credentials struct {
	tag      string
	label    string
	store    PasswordStore
	codec    *secret.Codec
	acquirer *token.Acquirer
	logger   *logging.Logger
	metrics  *metrics.Recorder
}

// NewCredentials is the Factory of the "password" handler.
func NewCredentials(tag string, env Environment) (Handler, error) {
	if env.Codec == nil {
		return nil, errors.New("password handler requires a codec")
	}
	if env.Store == nil {
		return nil, errors.New("password handler requires an account store")
	}
	env = env.withDefaults()
	return &Credentials{
		tag:      tag,
		label:    env.label(tag, "Password"),
		store:    env.Store,
		codec:    env.Codec,
		acquirer: env.Acquirer,
		logger:   env.Logger,
		metrics:  env.Metrics,
	}, nil
}

func (c *Credentials) Tag() string   { return c.tag }
func (c *Credentials) Label() string { return c.label }

func (c *Credentials) StoredKind() secret.Kind { return secret.UserCredentialsSecret }
func (c *Credentials) TokenKind() secret.Kind  { return secret.UserCredentialsToken }

func (c *Credentials) TokenFromAccount(ctx context.Context, account Account) (*secret.Protected, error) {
	stored, err := c.StoredSecretFromAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	return c.TokenFromStoredSecret(stored)
}

// TokenFromStoredSecret re-seals the stored fields as a session token.
func (c *Credentials) TokenFromStoredSecret(stored *secret.Protected) (*secret.Protected, error) {
	if stored == nil || stored.Scheme() != secret.UserCredentialsSecret.Scheme {
		scheme := "<nil>"
		if stored != nil {
			scheme = stored.Scheme()
		}
		return nil, fmt.Errorf("%w: %s", ErrWrongKind, scheme)
	}
	creds, err := stored.Credentials()
	if err != nil {
		return nil, err
	}
	return c.codec.Seal(secret.UserCredentialsToken, creds.Parts()...)
}

// StoredSecretFromAccount reads and unprotects the account's stored secret.
func (c *Credentials) StoredSecretFromAccount(ctx context.Context, account Account) (*secret.Protected, error) {
	raw, found, err := c.store.Password(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("read stored secret for %s: %w", account.ID, err)
	}
	if !found {
		return nil, fmt.Errorf("%w for account %s", ErrNoStoredSecret, account.ID)
	}

	stored, err := c.codec.Open(secret.UserCredentialsSecret, raw)
	if err != nil {
		c.metrics.RecordDecodeFailure(secret.UserCredentialsSecret.Scheme)
		c.logger.Warn("stored secret of %s cannot be decoded", account.ID)
		return nil, err
	}
	return stored, nil
}

func (c *Credentials) NeedsRefresh(*secret.Protected) bool { return false }

// Acquire fetches the session token through the acquirer and unprotects it.
func (c *Credentials) Acquire(ctx context.Context, account Account) (*secret.Protected, error) {
	if c.acquirer == nil {
		return nil, ErrNoAcquirer
	}
	raw, err := c.acquirer.Acquire(ctx, account.ID, TokenType(c.tag))
	if err != nil {
		return nil, err
	}
	tok, err := c.codec.Open(secret.UserCredentialsToken, raw)
	if err != nil {
		c.metrics.RecordDecodeFailure(secret.UserCredentialsToken.Scheme)
		return nil, err
	}
	return tok, nil
}
