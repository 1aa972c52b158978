package secret

import (
	"fmt"
	"strings"
)

const schemeDelimiter = ":"

// Protected is a secret in its persisted form, "<scheme>:<blob>".
//
// A Protected value built by Codec.Seal is readable immediately. One built by
// Parse is opaque: Fields returns ErrOpaque until Unprotect succeeds. Apart from
// that single transition a Protected value never changes. It is not safe to call
// Unprotect concurrently with other methods.
type Protected struct {
	kind     Kind
	payload  string
	fields   []*string
	readable bool
}

// Parse validates the scheme prefix of s and returns an opaque secret.
func Parse(kind Kind, s string) (*Protected, error) {
	prefix := kind.Scheme + schemeDelimiter
	if !strings.HasPrefix(s, prefix) {
		return nil, &MalformedSecretError{
			Scheme: kind.Scheme,
			Reason: fmt.Sprintf("expected scheme %s, but secret started with %q", kind.Scheme, head(s, len(prefix))),
		}
	}
	return &Protected{kind: kind, payload: s}, nil
}

// Unprotect deobfuscates and splits the payload. It is a no-op on a readable
// secret.
func (p *Protected) Unprotect(codec *Codec) error {
	if p.readable {
		return nil
	}
	fields, err := codec.reveal(p.kind, p.payload[len(p.kind.Scheme)+len(schemeDelimiter):])
	if err != nil {
		return err
	}
	p.fields = fields
	p.readable = true
	return nil
}

// Kind returns the kind of the secret.
func (p *Protected) Kind() Kind {
	return p.kind
}

// Scheme returns the scheme tag.
func (p *Protected) Scheme() string {
	return p.kind.Scheme
}

// Readable reports whether the fields are available.
func (p *Protected) Readable() bool {
	return p.readable
}

// Fields returns a copy of the decoded fields in scheme order.
func (p *Protected) Fields() ([]*string, error) {
	if !p.readable {
		return nil, ErrOpaque
	}
	out := make([]*string, len(p.fields))
	copy(out, p.fields)
	return out, nil
}

// Field returns a single field by name.
func (p *Protected) Field(name string) (*string, error) {
	if !p.readable {
		return nil, ErrOpaque
	}
	i := p.kind.FieldIndex(name)
	if i < 0 {
		return nil, fmt.Errorf("scheme %s has no field %q", p.kind.Scheme, name)
	}
	return p.fields[i], nil
}

// Credentials returns the fields of a user credentials secret or token.
func (p *Protected) Credentials() (Credentials, error) {
	if !p.readable {
		return Credentials{}, ErrOpaque
	}
	if p.kind.Arity() != len(credentialFields) || p.kind.FieldIndex(FieldUsername) != 0 {
		return Credentials{}, fmt.Errorf("scheme %s does not carry user credentials", p.kind.Scheme)
	}
	return Credentials{
		Username: p.fields[0],
		Password: p.fields[1],
		Realm:    p.fields[2],
	}, nil
}

// String returns the persisted form.
func (p *Protected) String() string {
	return p.payload
}

// Credentials is the typed view of a user credentials secret. Any field may be
// nil.
type Credentials struct {
	Username *string
	Password *string
	Realm    *string
}

// Parts returns the fields in scheme order.
func (c Credentials) Parts() []*string {
	return []*string{c.Username, c.Password, c.Realm}
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

// Deref returns *p, or "" for nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
