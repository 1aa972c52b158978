package scheme

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedScheme matches every *UnsupportedSchemeError.
	ErrUnsupportedScheme = errors.New("unsupported authentication scheme")

	// ErrInvalidBinding matches every *BindingError.
	ErrInvalidBinding = errors.New("invalid scheme binding")

	// ErrNoStoredSecret is returned when an account has no stored secret.
	ErrNoStoredSecret = errors.New("no stored secret found")

	// ErrWrongKind is returned when a handler receives a secret of a kind it
	// does not handle.
	ErrWrongKind = errors.New("secret kind not handled by this scheme")

	// ErrNoAcquirer is returned by Acquire when the environment has no token
	// acquirer.
	ErrNoAcquirer = errors.New("no token acquirer configured")
)

// UnsupportedSchemeError is returned by lookups of unknown tags.
type UnsupportedSchemeError struct {
	Tag string
}

func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("unsupported authentication scheme %q", e.Tag)
}

// Is makes errors.Is(err, ErrUnsupportedScheme) true.
func (e *UnsupportedSchemeError) Is(target error) bool {
	return target == ErrUnsupportedScheme
}

// BindingError reports a configuration entry that cannot be registered.
type BindingError struct {
	Index   int
	Tag     string
	Handler string
	Reason  string
	Err     error
}

func (e *BindingError) Error() string {
	msg := fmt.Sprintf("scheme binding %d (tag %q, handler %q): %s", e.Index, e.Tag, e.Handler, e.Reason)
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *BindingError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrInvalidBinding) true.
func (e *BindingError) Is(target error) bool {
	return target == ErrInvalidBinding
}
