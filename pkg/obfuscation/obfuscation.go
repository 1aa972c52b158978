package obfuscation

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidData is returned when an obfuscated value cannot be decoded.
var ErrInvalidData = errors.New("invalid obfuscated data")

// Strategy is a stateless, reversible string transform.
//
// For every strategy s, key k and value v (including nil and the empty string):
//
//	s.Deobfuscate(k, s.Obfuscate(k, v)) == v
type Strategy interface {
	// Name returns the identifier the strategy is registered under.
	Name() string

	// Obfuscate transforms plaintext. A nil plaintext yields nil.
	Obfuscate(keyFragment string, plaintext *string) *string

	// Deobfuscate reverses Obfuscate. keyFragment must match the value passed to
	// Obfuscate.
	Deobfuscate(keyFragment string, obfuscated *string) (*string, error)
}

// NewFunc constructs a strategy.
type NewFunc func() Strategy

// UnknownStrategyError is returned by New for a name that is not registered.
type UnknownStrategyError struct {
	Name string
}

func (e *UnknownStrategyError) Error() string {
	return fmt.Sprintf("unknown obfuscation strategy: %q", e.Name)
}

// registry maps strategy names to constructors. It is never modified after
// package initialisation.
var registry = map[string]NewFunc{
	IdentityName: func() Strategy { return Identity{} },
	Base64Name:   func() Strategy { return Base64{} },
	XORName:      func() Strategy { return NewXOR() },
}

// New returns the strategy registered under name.
func New(name string) (Strategy, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, &UnknownStrategyError{Name: name}
	}
	return fn(), nil
}

// MustNew is like New but panics on an unknown name. Intended for package level
// variables and tests.
func MustNew(name string) Strategy {
	s, err := New(name)
	if err != nil {
		panic(err)
	}
	return s
}

// Names returns the registered strategy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSupported reports whether name is a registered strategy.
func IsSupported(name string) bool {
	_, ok := registry[name]
	return ok
}
