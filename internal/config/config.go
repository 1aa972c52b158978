// Package config loads dsauth.yaml.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/systmms/dsauth/internal/accountstore"
	"github.com/systmms/dsauth/internal/authenticator"
	dserrors "github.com/systmms/dsauth/internal/errors"
	"github.com/systmms/dsauth/internal/logging"
	"github.com/systmms/dsauth/pkg/obfuscation"
	"github.com/systmms/dsauth/pkg/scheme"
	"github.com/systmms/dsauth/pkg/secret"
	"github.com/systmms/dsauth/pkg/token"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "dsauth.yaml"

//go:embed schema.json
var schemaJSON []byte

// Config holds the runtime configuration
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the dsauth.yaml structure
type Definition struct {
	Version      int                `yaml:"version"`
	Obfuscation  string             `yaml:"obfuscation"`
	KeyFragment  string             `yaml:"keyFragment,omitempty"`
	Schemes      []scheme.Binding   `yaml:"schemes"`
	Labels       map[string]string  `yaml:"labels,omitempty"`
	AccountStore AccountStoreConfig `yaml:"accountStore"`
	Tokens       TokenConfig        `yaml:"tokens"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// AccountStoreConfig selects the backend. Backend specific keys sit inline
// next to the type.
type AccountStoreConfig struct {
	Type   string                 `yaml:"type"`
	Config map[string]interface{} `yaml:",inline"`
}

// TokenConfig tunes token acquisition.
type TokenConfig struct {
	MaxAttempts     int `yaml:"maxAttempts"`
	DelayMs         int `yaml:"delayMs"`
	CacheTTLSeconds int `yaml:"cacheTtlSeconds"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// Default returns the built-in configuration: anonymous and password schemes,
// xor obfuscation and an in-memory account store.
func Default() *Definition {
	return &Definition{
		Version:      0,
		Obfuscation:  obfuscation.XORName,
		Schemes:      scheme.DefaultBindings(),
		AccountStore: AccountStoreConfig{Type: accountstore.MemoryType},
		Tokens: TokenConfig{
			MaxAttempts:     3,
			DelayMs:         200,
			CacheTTLSeconds: int(authenticator.DefaultTokenTTL / time.Second),
		},
	}
}

// Load reads and validates the configuration file. A missing file at the
// default path yields Default().
func (c *Config) Load() error {
	if c.Logger == nil {
		c.Logger = logging.Discard()
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			if c.Path == DefaultPath {
				c.Logger.Debug("No %s found, using built-in defaults", DefaultPath)
				c.Definition = Default()
				return nil
			}
			return dserrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "configuration file not found",
				Suggestion: "Check the --config flag or create a dsauth.yaml",
			}
		}
		return dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	def, err := Parse(data)
	if err != nil {
		return err
	}
	c.Definition = def
	c.Logger.Debug("Loaded configuration from %s", c.Path)
	return nil
}

// Parse validates data against the embedded schema and decodes it on top of
// Default().
func Parse(data []byte) (*Definition, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, dserrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	def := Default()
	if err := yaml.Unmarshal(data, def); err != nil {
		return nil, dserrors.ConfigError{
			Message:    "configuration does not match the expected structure",
			Suggestion: err.Error(),
		}
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func validateSchema(doc interface{}) error {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		first := result.Errors()[0]
		var messages []string
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}
		return dserrors.ConfigError{
			Field:      first.Field(),
			Message:    "schema validation failed:\n  - " + strings.Join(messages, "\n  - "),
			Suggestion: "Compare your dsauth.yaml with the documented layout",
		}
	}
	return nil
}

// Validate checks what the schema cannot express.
func (d *Definition) Validate() error {
	if !obfuscation.IsSupported(d.Obfuscation) {
		return dserrors.ConfigError{
			Field:      "obfuscation",
			Value:      d.Obfuscation,
			Message:    "unknown obfuscation strategy",
			Suggestion: "Use one of: " + strings.Join(obfuscation.Names(), ", "),
		}
	}

	stores := accountstore.NewRegistry()
	if !stores.IsSupported(d.AccountStore.Type) {
		return dserrors.ConfigError{
			Field:      "accountStore.type",
			Value:      d.AccountStore.Type,
			Message:    "unknown account store type",
			Suggestion: "Use one of: " + strings.Join(stores.SupportedTypes(), ", "),
		}
	}

	if len(d.Schemes) == 0 {
		return dserrors.ConfigError{
			Field:      "schemes",
			Message:    "at least one scheme must be configured",
			Suggestion: "Add '- {tag: password, handler: password}' under schemes",
		}
	}
	seen := make(map[string]bool, len(d.Schemes))
	for i, b := range d.Schemes {
		if seen[b.Tag] {
			return dserrors.ConfigError{
				Field:      fmt.Sprintf("schemes[%d].tag", i),
				Value:      b.Tag,
				Message:    "duplicate scheme tag",
				Suggestion: "Each tag may be bound to one handler only",
			}
		}
		seen[b.Tag] = true
	}
	return nil
}

// Codec builds the secret codec.
func (d *Definition) Codec() (*secret.Codec, error) {
	strategy, err := obfuscation.New(d.Obfuscation)
	if err != nil {
		return nil, err
	}
	codec := secret.NewCodec(strategy)
	if d.KeyFragment != "" {
		codec = codec.WithKeyFragment(d.KeyFragment)
	}
	return codec, nil
}

// Store creates the configured account store.
func (d *Definition) Store() (accountstore.Store, error) {
	store, err := accountstore.NewRegistry().Create(d.AccountStore.Type, d.AccountStore.Config)
	if err != nil {
		return nil, dserrors.StoreError(d.AccountStore.Type, "setup", err)
	}
	return store, nil
}

// TokenOptions returns the acquirer options.
func (d *Definition) TokenOptions() []token.Option {
	return []token.Option{
		token.WithMaxAttempts(d.Tokens.MaxAttempts),
		token.WithDelay(time.Duration(d.Tokens.DelayMs) * time.Millisecond),
	}
}

// ServiceOptions returns the authenticator options this definition implies.
func (d *Definition) ServiceOptions() []authenticator.Option {
	return []authenticator.Option{
		authenticator.WithBindings(d.Schemes),
		authenticator.WithLabels(d.Labels),
		authenticator.WithTokenTTL(time.Duration(d.Tokens.CacheTTLSeconds) * time.Second),
		authenticator.WithAcquirerOptions(d.TokenOptions()...),
	}
}

// NewService builds the authenticator for this definition.
func (d *Definition) NewService(opts ...authenticator.Option) (*authenticator.Service, error) {
	codec, err := d.Codec()
	if err != nil {
		return nil, err
	}
	store, err := d.Store()
	if err != nil {
		return nil, err
	}
	return authenticator.New(store, codec, append(d.ServiceOptions(), opts...)...)
}
