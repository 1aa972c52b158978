package token

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyToken is the cause recorded when the source returned no token.
	ErrEmptyToken = errors.New("auth token was empty")

	// ErrCancelled is reported by a source whose operation was cancelled.
	ErrCancelled = errors.New("token request cancelled")

	// ErrIO marks transport failures between the acquirer and the token source.
	ErrIO = errors.New("token source i/o error")

	// ErrAcquisitionFailed matches every *AcquisitionError.
	ErrAcquisitionFailed = errors.New("token acquisition failed")
)

// AuthenticatorError is reported by a token source that understood the request
// but could not produce a token. Only transient errors are retried.
type AuthenticatorError struct {
	Reason    string
	Transient bool
	Err       error
}

func (e *AuthenticatorError) Error() string {
	msg := "authenticator error"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *AuthenticatorError) Unwrap() error {
	return e.Err
}

// AcquisitionError is returned when every attempt failed with a retryable
// outcome. Err is the cause of the last attempt.
type AcquisitionError struct {
	AccountID string
	TokenType string
	Attempts  int
	Err       error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("failed to acquire %s token for account %s after %d attempts: %v",
		e.TokenType, e.AccountID, e.Attempts, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrAcquisitionFailed) true.
func (e *AcquisitionError) Is(target error) bool {
	return target == ErrAcquisitionFailed
}
