package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/systmms/dsauth/internal/accountstore"
	"github.com/systmms/dsauth/pkg/scheme"
	"github.com/systmms/dsauth/pkg/secret"
	"github.com/systmms/dsauth/pkg/token"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
	Err        error
}

func (e ConfigError) Unwrap() error {
	return e.Err
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// StoreError enhances account store errors with backend specific hints
func StoreError(storeType string, operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("%s account store error during %s", storeType, operation),
		Details:    err.Error(),
		Suggestion: getStoreSuggestion(storeType, err),
		Err:        err,
	}
}

// getStoreSuggestion returns helpful suggestions based on store type and error
func getStoreSuggestion(storeType string, err error) string {
	errStr := err.Error()

	switch storeType {
	case accountstore.KeyringType:
		if strings.Contains(errStr, "org.freedesktop.secrets") || strings.Contains(errStr, "dbus") {
			return "No Secret Service is running. Start gnome-keyring or use another account store"
		}

	case accountstore.SecretsManagerType, accountstore.SSMType:
		if strings.Contains(errStr, "credentials") || strings.Contains(errStr, "authorization") {
			return "Configure AWS credentials: 'aws configure' or set AWS_PROFILE"
		}
		if strings.Contains(errStr, "AccessDenied") {
			return "Check IAM permissions for the account store secrets"
		}
		if strings.Contains(errStr, "Throttling") {
			return "AWS rate limit exceeded. Wait a moment and try again"
		}

	case accountstore.GCPSecretManagerType:
		if strings.Contains(errStr, "PermissionDenied") {
			return "Grant roles/secretmanager.secretAccessor and secretVersionAdder to the caller"
		}
		if strings.Contains(errStr, "could not find default credentials") {
			return "Run 'gcloud auth application-default login' or set service_account_key_path"
		}

	case accountstore.AzureKeyVaultType:
		if strings.Contains(errStr, "403") || strings.Contains(errStr, "Forbidden") {
			return "Check the Key Vault access policy or RBAC role for secrets get/set/delete"
		}

	case accountstore.AkeylessType:
		if strings.Contains(errStr, "status 401") || strings.Contains(errStr, "status 403") {
			return "Check the access_id and access_key of the Akeyless store and the role's item permissions"
		}

	case accountstore.SQLType:
		if strings.Contains(errStr, "does not exist") || strings.Contains(errStr, "doesn't exist") {
			return "Create the accounts table or run 'dsauth account init'"
		}
	}

	// Generic suggestions
	if strings.Contains(errStr, "timeout") {
		return "The operation timed out. Check your network connection and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and account store configuration"
	}

	return ""
}

// SimplifyError turns domain and technical errors into user facing ones
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Already a user-friendly error
	var userErr UserError
	if errors.As(err, &userErr) {
		return err
	}
	var cfgErr ConfigError
	if errors.As(err, &cfgErr) {
		return err
	}

	var unsupported *scheme.UnsupportedSchemeError
	if errors.As(err, &unsupported) {
		return UserError{
			Message:    fmt.Sprintf("No handler is configured for scheme %q", unsupported.Tag),
			Suggestion: "Run 'dsauth schemes' to list the configured schemes",
			Err:        err,
		}
	}

	var storeErr *accountstore.StoreError
	if errors.As(err, &storeErr) {
		return StoreError(storeErr.Store, storeErr.Op, err)
	}

	var acqErr *token.AcquisitionError
	if errors.As(err, &acqErr) {
		return UserError{
			Message:    fmt.Sprintf("Could not get a token for %s", acqErr.AccountID),
			Details:    acqErr.Err.Error(),
			Suggestion: "The token source kept failing. Check that the account store is reachable",
			Err:        err,
		}
	}

	switch {
	case errors.Is(err, scheme.ErrNoStoredSecret):
		return UserError{
			Message:    "No secret is stored for this account",
			Suggestion: "Add it with 'dsauth account add'",
			Err:        err,
		}
	case errors.Is(err, secret.ErrMalformedSecret):
		return UserError{
			Message:    "The protected secret cannot be decoded",
			Suggestion: "Check the obfuscation strategy and key fragment match the ones it was sealed with",
			Err:        err,
		}
	}

	// Simplify common technical errors
	errStr := err.Error()

	if errors.Is(err, fs.ErrPermission) || strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	// yaml.v3 prefixes its syntax and type errors with "yaml: ".
	if strings.HasPrefix(errStr, "yaml: ") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	return err
}
