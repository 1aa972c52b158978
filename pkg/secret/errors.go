package secret

import (
	"errors"
	"fmt"
)

// ErrMalformedSecret matches every *MalformedSecretError via errors.Is.
var ErrMalformedSecret = errors.New("malformed secret")

// ErrOpaque is returned when the fields of a parsed secret are read before
// Unprotect succeeded.
var ErrOpaque = errors.New("secret has not been unprotected")

// MalformedSecretError reports a protected secret that cannot be decoded: a wrong
// or missing scheme prefix, an undecodable blob or a field count that does not
// match the scheme.
type MalformedSecretError struct {
	Scheme string
	Reason string
	Err    error
}

func (e *MalformedSecretError) Error() string {
	msg := "malformed secret"
	if e.Scheme != "" {
		msg += fmt.Sprintf(" for scheme %s", e.Scheme)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *MalformedSecretError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMalformedSecret) true.
func (e *MalformedSecretError) Is(target error) bool {
	return target == ErrMalformedSecret
}
