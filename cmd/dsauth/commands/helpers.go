package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/systmms/dsauth/internal/accountstore"
	"github.com/systmms/dsauth/internal/authenticator"
	"github.com/systmms/dsauth/internal/config"
	dserrors "github.com/systmms/dsauth/internal/errors"
	"github.com/systmms/dsauth/internal/logging"
	"github.com/systmms/dsauth/internal/metrics"
	"github.com/systmms/dsauth/pkg/secret"
)

// loadDefinition loads the configuration once per command.
func loadDefinition(cfg *config.Config) (*config.Definition, error) {
	if cfg.Definition != nil {
		return cfg.Definition, nil
	}
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return cfg.Definition, nil
}

func loadCodec(cfg *config.Config) (*secret.Codec, error) {
	def, err := loadDefinition(cfg)
	if err != nil {
		return nil, err
	}
	return def.Codec()
}

func loadService(cfg *config.Config) (*authenticator.Service, error) {
	def, err := loadDefinition(cfg)
	if err != nil {
		return nil, err
	}
	return def.NewService(
		authenticator.WithLogger(logger(cfg)),
		authenticator.WithMetrics(metrics.New()),
	)
}

// closeService releases the account store behind svc.
func closeService(cfg *config.Config, svc *authenticator.Service) {
	if err := svc.Close(); err != nil {
		logger(cfg).Debug("Closing account store %s: %v", svc.Store().Name(), err)
	}
}

// requirePersistentStore refuses writes to a store that forgets them when the
// command exits.
func requirePersistentStore(svc *authenticator.Service) error {
	if accountstore.IsPersistent(svc.Store()) {
		return nil
	}
	return dserrors.ConfigError{
		Field:      "accountStore.type",
		Value:      svc.Store().Name(),
		Message:    "the account store does not persist between commands",
		Suggestion: "Configure a persistent store such as keyring, sql or a cloud secret manager",
	}
}

func logger(cfg *config.Config) *logging.Logger {
	if cfg.Logger == nil {
		return logging.Discard()
	}
	return cfg.Logger
}

// kindFlag resolves a --kind value, accepting the scheme tag of any built-in
// kind.
func kindFlag(name string) (secret.Kind, error) {
	if k, ok := secret.KindByScheme(name); ok {
		return k, nil
	}
	var names []string
	for _, k := range secret.Kinds() {
		names = append(names, k.Scheme)
	}
	return secret.Kind{}, fmt.Errorf("unknown kind %q (valid: %s)", name, strings.Join(names, ", "))
}

func readAllTrim(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
