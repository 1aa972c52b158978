package scheme

import (
	"context"
	"errors"

	"github.com/systmms/dsauth/pkg/secret"
)

// Anonymous handles accounts that need no credentials.
type Anonymous struct {
	tag   string
	label string
	codec *secret.Codec
}

// NewAnonymous is the Factory of the "anonymous" handler.
func NewAnonymous(tag string, env Environment) (Handler, error) {
	if env.Codec == nil {
		return nil, errors.New("anonymous handler requires a codec")
	}
	return &Anonymous{
		tag:   tag,
		label: env.label(tag, "Anonymous"),
		codec: env.Codec,
	}, nil
}

func (a *Anonymous) Tag() string   { return a.tag }
func (a *Anonymous) Label() string { return a.label }

func (a *Anonymous) StoredKind() secret.Kind { return secret.AnonymousSecret }
func (a *Anonymous) TokenKind() secret.Kind  { return secret.AnonymousToken }

// TokenFromAccount returns an empty anonymous token without touching the store.
func (a *Anonymous) TokenFromAccount(context.Context, Account) (*secret.Protected, error) {
	return a.codec.Seal(secret.AnonymousToken)
}

// TokenFromStoredSecret ignores the secret; every anonymous token is the same.
func (a *Anonymous) TokenFromStoredSecret(*secret.Protected) (*secret.Protected, error) {
	return a.codec.Seal(secret.AnonymousToken)
}

func (a *Anonymous) StoredSecretFromAccount(context.Context, Account) (*secret.Protected, error) {
	return a.codec.Seal(secret.AnonymousSecret)
}

func (a *Anonymous) NeedsRefresh(*secret.Protected) bool { return false }

// Acquire never blocks.
func (a *Anonymous) Acquire(ctx context.Context, account Account) (*secret.Protected, error) {
	return a.TokenFromAccount(ctx, account)
}
