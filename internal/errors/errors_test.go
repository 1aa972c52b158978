package errors_test

import (
	"context"
	"fmt"
	"io/fs"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/dsauth/internal/accountstore"
	"github.com/systmms/dsauth/internal/errors"
	"github.com/systmms/dsauth/internal/logging"
	"github.com/systmms/dsauth/pkg/obfuscation"
	"github.com/systmms/dsauth/pkg/scheme"
	"github.com/systmms/dsauth/pkg/secret"
	"github.com/systmms/dsauth/pkg/token"
)

// TestUserErrorFormatting verifies UserError displays properly
func TestUserErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.UserError{
		Message:    "Operation failed",
		Details:    "Connection timeout",
		Suggestion: "Check network connectivity",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "Operation failed")
	assert.Contains(t, errMsg, "Details: Connection timeout")
	assert.Contains(t, errMsg, "Try: Check network connectivity")
}

// TestConfigErrorFormatting verifies ConfigError displays with context
func TestConfigErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.ConfigError{
		Field:      "accountStore.type",
		Value:      "vault",
		Message:    "unknown account store type",
		Suggestion: "Use one of: memory, keyring, sql",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "in field 'accountStore.type'")
	assert.Contains(t, errMsg, "(value: vault)")
	assert.Contains(t, errMsg, "unknown account store type")
	assert.Contains(t, errMsg, "memory, keyring, sql")
}

func TestStoreErrorSuggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		store   string
		err     string
		wantSug string
	}{
		{"keyring", "The name org.freedesktop.secrets was not provided by any .service files", "Secret Service"},
		{"aws.secretsmanager", "AccessDeniedException: not authorized", "IAM permissions"},
		{"aws.ssm", "ThrottlingException: Rate exceeded", "rate limit"},
		{"aws.ssm", "failed to retrieve credentials", "aws configure"},
		{"gcp.secretmanager", "rpc error: code = PermissionDenied", "secretAccessor"},
		{"azure.keyvault", "RESPONSE 403: 403 Forbidden", "access policy"},
		{"sql", `pq: relation "dsauth_accounts" does not exist`, "accounts table"},
		{"memory", "i/o timeout", "timed out"},
		{"sql", "dial tcp: connection refused", "Unable to connect"},
	}

	for _, tt := range tests {
		t.Run(tt.store+"/"+tt.wantSug, func(t *testing.T) {
			t.Parallel()

			err := errors.StoreError(tt.store, "get", fmt.Errorf("%s", tt.err))
			var userErr errors.UserError
			require.ErrorAs(t, err, &userErr)
			assert.Contains(t, userErr.Suggestion, tt.wantSug)
			assert.Contains(t, userErr.Message, tt.store+" account store error during get")
		})
	}

	err := errors.StoreError("memory", "get", fmt.Errorf("weird"))
	assert.Empty(t, err.(errors.UserError).Suggestion)
}

func TestSimplifyError(t *testing.T) {
	t.Parallel()

	codec := secret.NewCodec(obfuscation.NewXOR())
	_, malformed := codec.Open(secret.UserCredentialsSecret, "user_creds_secret:***")
	require.Error(t, malformed)

	tests := []struct {
		name          string
		inputError    error
		expectedType  string
		expectedInMsg string
	}{
		{
			name:          "yaml_error",
			inputError:    fmt.Errorf("yaml: line 5: mapping values are not allowed"),
			expectedType:  "ConfigError",
			expectedInMsg: "Invalid YAML",
		},
		{
			name:          "permission_denied",
			inputError:    fmt.Errorf("open /etc/dsauth.yaml: permission denied"),
			expectedType:  "UserError",
			expectedInMsg: "Permission denied",
		},
		{
			name:          "file_not_found",
			inputError:    fmt.Errorf("no such file or directory"),
			expectedType:  "UserError",
			expectedInMsg: "not found",
		},
		{
			name:          "unsupported_scheme",
			inputError:    &scheme.UnsupportedSchemeError{Tag: "kerberos"},
			expectedType:  "UserError",
			expectedInMsg: `scheme "kerberos"`,
		},
		{
			name:          "no_stored_secret",
			inputError:    fmt.Errorf("read: %w", scheme.ErrNoStoredSecret),
			expectedType:  "UserError",
			expectedInMsg: "No secret is stored",
		},
		{
			name:          "malformed_secret",
			inputError:    malformed,
			expectedType:  "UserError",
			expectedInMsg: "cannot be decoded",
		},
		{
			name: "acquisition_failed",
			inputError: &token.AcquisitionError{
				AccountID: "alice", TokenType: "password:", Attempts: 3, Err: context.DeadlineExceeded,
			},
			expectedType:  "UserError",
			expectedInMsg: "Could not get a token for alice",
		},
		{
			name: "store_error",
			inputError: &accountstore.StoreError{
				Store: "aws.ssm", Op: "get", AccountID: "alice", Err: fmt.Errorf("AccessDeniedException"),
			},
			expectedType:  "UserError",
			expectedInMsg: "aws.ssm account store error during get",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			simplified := errors.SimplifyError(tt.inputError)

			errMsg := simplified.Error()
			assert.Contains(t, errMsg, tt.expectedInMsg)

			switch tt.expectedType {
			case "ConfigError":
				_, ok := simplified.(errors.ConfigError)
				assert.True(t, ok, "Should be ConfigError type")
			case "UserError":
				_, ok := simplified.(errors.UserError)
				assert.True(t, ok, "Should be UserError type")
			}
		})
	}
}

func TestSimplifyErrorKeepsFriendlyErrors(t *testing.T) {
	t.Parallel()

	cfg := errors.ConfigError{Message: "bad"}
	assert.Equal(t, cfg, errors.SimplifyError(cfg))

	wrapped := fmt.Errorf("loading: %w", errors.UserError{Message: "already friendly"})
	assert.Equal(t, wrapped, errors.SimplifyError(wrapped))

	plain := fmt.Errorf("something else")
	assert.Equal(t, plain, errors.SimplifyError(plain))
}

func TestSimplifyErrorKeepsCause(t *testing.T) {
	t.Parallel()

	pathErr := &fs.PathError{Op: "open", Path: "/etc/dsauth.yaml", Err: fs.ErrPermission}
	simplified := errors.SimplifyError(fmt.Errorf("load config: %w", pathErr))
	userErr, ok := simplified.(errors.UserError)
	require.True(t, ok, "permission failures on yaml files are not YAML errors")
	assert.Equal(t, "Permission denied", userErr.Message)
	assert.ErrorIs(t, simplified, fs.ErrPermission)

	var node map[string]interface{}
	yamlErr := yaml.Unmarshal([]byte("a: [1, 2"), &node)
	require.Error(t, yamlErr)
	simplified = errors.SimplifyError(yamlErr)
	cfgErr, ok := simplified.(errors.ConfigError)
	require.True(t, ok)
	assert.Equal(t, "Invalid YAML format", cfgErr.Message)
	assert.ErrorIs(t, simplified, yamlErr)

	notYAML := fmt.Errorf("reading dsauth.yaml: connection reset")
	assert.Equal(t, notYAML, errors.SimplifyError(notYAML))
}

// TestUserErrorUnwrap verifies error unwrapping works correctly
func TestUserErrorUnwrap(t *testing.T) {
	t.Parallel()

	userErr := errors.UserError{
		Message: "wrapped error",
		Err:     scheme.ErrNoStoredSecret,
	}

	assert.ErrorIs(t, userErr, scheme.ErrNoStoredSecret)
	assert.Equal(t, "wrapped error", userErr.Error())

	bare := errors.UserError{Err: fmt.Errorf("base error")}
	assert.Equal(t, "base error", bare.Error())
}

func TestStoreErrorDoesNotLeakRedactedSecrets(t *testing.T) {
	t.Parallel()

	secretValue := "hunter2"
	baseErr := fmt.Errorf("write rejected for value %s", logging.Secret(secretValue))

	errMsg := errors.StoreError("sql", "upsert", baseErr).Error()
	assert.Contains(t, errMsg, "[REDACTED]")
	assert.NotContains(t, errMsg, secretValue)
}

func TestNilErrorHandling(t *testing.T) {
	t.Parallel()
	assert.Nil(t, errors.SimplifyError(nil))
}
