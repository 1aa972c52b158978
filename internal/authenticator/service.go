package authenticator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/systmms/dsauth/internal/accountstore"
	"github.com/systmms/dsauth/internal/logging"
	"github.com/systmms/dsauth/internal/metrics"
	"github.com/systmms/dsauth/pkg/scheme"
	"github.com/systmms/dsauth/pkg/secret"
	"github.com/systmms/dsauth/pkg/token"
)

// DefaultTokenTTL is how long fetched tokens stay cached.
const DefaultTokenTTL = 5 * time.Minute

// Service issues auth tokens for the accounts of a store.
type Service struct {
	store    accountstore.Store
	codec    *secret.Codec
	registry *scheme.Registry
	acquirer *token.Acquirer
	cache    *TokenCache
	logger   *logging.Logger
	metrics  *metrics.Recorder
}

type options struct {
	bindings     []scheme.Binding
	labels       map[string]string
	tokenTTL     time.Duration
	logger       *logging.Logger
	metrics      *metrics.Recorder
	acquirerOpts []token.Option
	registryOpts []scheme.RegistryOption
}

// Option configures a Service.
type Option func(*options)

// WithBindings replaces the default scheme bindings.
func WithBindings(b []scheme.Binding) Option {
	return func(o *options) { o.bindings = b }
}

// WithLabels sets display labels per tag.
func WithLabels(labels map[string]string) Option {
	return func(o *options) { o.labels = labels }
}

// WithTokenTTL sets the cache lifetime. Zero disables caching.
func WithTokenTTL(d time.Duration) Option {
	return func(o *options) { o.tokenTTL = d }
}

func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(o *options) { o.metrics = m }
}

// WithAcquirerOptions passes options to the token acquirer.
func WithAcquirerOptions(opts ...token.Option) Option {
	return func(o *options) { o.acquirerOpts = append(o.acquirerOpts, opts...) }
}

// WithRegistryOptions passes options to the scheme registry, e.g. extra
// handler factories.
func WithRegistryOptions(opts ...scheme.RegistryOption) Option {
	return func(o *options) { o.registryOpts = append(o.registryOpts, opts...) }
}

// New builds a Service over store. The returned service owns the acquirer and
// the scheme registry.
func New(store accountstore.Store, codec *secret.Codec, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("authenticator requires an account store")
	}
	if codec == nil {
		return nil, errors.New("authenticator requires a codec")
	}

	o := options{
		bindings: scheme.DefaultBindings(),
		tokenTTL: DefaultTokenTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	if o.metrics == nil {
		o.metrics = metrics.New()
	}

	s := &Service{
		store:   store,
		codec:   codec,
		cache:   NewTokenCache(o.tokenTTL),
		logger:  o.logger,
		metrics: o.metrics,
	}

	acqOpts := append([]token.Option{
		token.WithLogger(o.logger),
		token.WithMetrics(o.metrics),
	}, o.acquirerOpts...)
	s.acquirer = token.NewAcquirer(s, acqOpts...)

	env := scheme.Environment{
		Store:    store,
		Codec:    codec,
		Acquirer: s.acquirer,
		Labels:   o.labels,
		Logger:   o.logger,
		Metrics:  o.metrics,
	}
	reg, err := scheme.NewRegistry(env, o.bindings, o.registryOpts...)
	if err != nil {
		return nil, err
	}
	s.registry = reg
	return s, nil
}

// FetchToken implements token.Fetcher. Errors the caller cannot fix by
// retrying are reported as *token.AuthenticatorError; store transport
// failures keep their token.ErrIO marker.
func (s *Service) FetchToken(ctx context.Context, accountID, tokenType string, notifyOnFailure bool) (string, error) {
	if tok, ok := s.cache.Get(accountID, tokenType); ok {
		s.logger.Debug("Using cached token %s for %s", logging.Protected(tok), accountID)
		return tok, nil
	}

	tok, err := s.fetch(ctx, accountID, tokenType)
	if err != nil {
		if notifyOnFailure {
			s.logger.Warn("Could not get %s token for %s: %v", tokenType, accountID, err)
		}
		return "", err
	}

	s.cache.Set(accountID, tokenType, tok)
	return tok, nil
}

func (s *Service) fetch(ctx context.Context, accountID, tokenType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	h, err := s.registry.LookupTokenType(tokenType)
	if err != nil {
		return "", &token.AuthenticatorError{Reason: "unknown auth token type", Err: err}
	}

	tok, err := h.TokenFromAccount(ctx, scheme.Account{ID: accountID, Type: tokenType})
	switch {
	case err == nil:
		return tok.String(), nil
	case errors.Is(err, scheme.ErrNoStoredSecret):
		return "", &token.AuthenticatorError{Reason: "no stored secret found", Err: err}
	case errors.Is(err, secret.ErrMalformedSecret), errors.Is(err, scheme.ErrWrongKind):
		return "", &token.AuthenticatorError{Reason: "stored secret is malformed", Err: err}
	default:
		return "", err
	}
}

// Acquire runs the retrying acquisition for one account.
func (s *Service) Acquire(ctx context.Context, accountID, tokenType string) (string, error) {
	return s.acquirer.Acquire(ctx, accountID, tokenType)
}

// OpenSession acquires a token for account through its handler.
func (s *Service) OpenSession(ctx context.Context, account scheme.Account) (*scheme.Session, error) {
	h, err := s.registry.LookupTokenType(account.Type)
	if err != nil {
		return nil, err
	}
	return scheme.Open(ctx, h, account, s)
}

// InvalidateToken drops cached copies of token. accountType may be a bare
// token type ("password:") or a full account type ("password://host"); both
// select the cache entries of the same handler.
func (s *Service) InvalidateToken(accountType, token string) {
	if tag, ok := scheme.TagOf(accountType); ok {
		accountType = scheme.TokenType(tag)
	}
	if n := s.cache.Invalidate(accountType, token); n > 0 {
		s.logger.Debug("Invalidated %d cached copies of %s", n, logging.Protected(token))
	}
}

// Label returns the display label of the handler for tokenType.
func (s *Service) Label(tokenType string) (string, error) {
	h, err := s.registry.LookupTokenType(tokenType)
	if err != nil {
		return "", err
	}
	return h.Label(), nil
}

// AddAccount seals the credentials in the handler's stored-secret kind and
// persists them. Fields the kind does not carry are ignored.
func (s *Service) AddAccount(ctx context.Context, accountID, tokenType string, username, password, realm *string) error {
	h, err := s.registry.LookupTokenType(tokenType)
	if err != nil {
		return err
	}

	kind := h.StoredKind()
	creds := secret.Credentials{Username: username, Password: password, Realm: realm}
	parts := creds.Parts()
	if len(parts) > kind.Arity() {
		parts = parts[:kind.Arity()]
	}

	stored, err := s.codec.Seal(kind, parts...)
	if err != nil {
		return fmt.Errorf("seal secret for %s: %w", accountID, err)
	}
	if err := s.store.SetPassword(ctx, accountID, stored.String()); err != nil {
		return err
	}

	s.cache.Forget(accountID)
	s.logger.Info("Stored %s secret for %s", kind.Scheme, accountID)
	return nil
}

// RemoveAccount deletes the stored secret and any cached tokens.
func (s *Service) RemoveAccount(ctx context.Context, accountID string) error {
	s.cache.Forget(accountID)
	return s.store.Delete(ctx, accountID)
}

// HasFeatures reports optional authenticator features. None are supported.
func (s *Service) HasFeatures(features ...string) bool {
	return false
}

// Close drops cached tokens and closes the store when it holds resources.
func (s *Service) Close() error {
	s.cache.Clear()
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Service) Registry() *scheme.Registry { return s.registry }
func (s *Service) Acquirer() *token.Acquirer  { return s.acquirer }
func (s *Service) Codec() *secret.Codec       { return s.codec }
func (s *Service) Store() accountstore.Store  { return s.store }
