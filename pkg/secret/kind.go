package secret

import "fmt"

// Role separates durable stored credentials from derived session tokens. Both
// roles use the same format; only the scheme tags differ.
type Role int

const (
	// RoleStored marks a secret persisted in an account store.
	RoleStored Role = iota
	// RoleSession marks a token handed to a client for one session.
	RoleSession
)

func (r Role) String() string {
	switch r {
	case RoleStored:
		return "stored"
	case RoleSession:
		return "session"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Kind describes one variant of protected secret: its scheme tag, its role and
// the ordered names of its fields.
type Kind struct {
	Scheme string
	Role   Role
	Fields []string
}

// Arity returns the number of fields.
func (k Kind) Arity() int {
	return len(k.Fields)
}

// FieldIndex returns the position of the named field or -1.
func (k Kind) FieldIndex(name string) int {
	for i, f := range k.Fields {
		if f == name {
			return i
		}
	}
	return -1
}

func (k Kind) String() string {
	return k.Scheme
}

// Field names of the user credential kinds.
const (
	FieldUsername = "username"
	FieldPassword = "password"
	FieldRealm    = "realm"
)

var credentialFields = []string{FieldUsername, FieldPassword, FieldRealm}

// Built-in kinds.
var (
	AnonymousSecret = Kind{Scheme: "anonymous_secret", Role: RoleStored}
	AnonymousToken  = Kind{Scheme: "anonymous_auth_token", Role: RoleSession}

	UserCredentialsSecret = Kind{Scheme: "user_creds_secret", Role: RoleStored, Fields: credentialFields}
	UserCredentialsToken  = Kind{Scheme: "user_creds_auth_token", Role: RoleSession, Fields: credentialFields}
)

var kinds = map[string]Kind{
	AnonymousSecret.Scheme:       AnonymousSecret,
	AnonymousToken.Scheme:        AnonymousToken,
	UserCredentialsSecret.Scheme: UserCredentialsSecret,
	UserCredentialsToken.Scheme:  UserCredentialsToken,
}

// KindByScheme returns the built-in kind for a scheme tag.
func KindByScheme(scheme string) (Kind, bool) {
	k, ok := kinds[scheme]
	return k, ok
}

// Kinds returns all built-in kinds.
func Kinds() []Kind {
	return []Kind{AnonymousSecret, AnonymousToken, UserCredentialsSecret, UserCredentialsToken}
}

// SchemeOf returns the scheme tag in front of a protected secret string, or
// false when there is none.
func SchemeOf(s string) (string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == schemeDelimiter[0] {
			return s[:i], i > 0
		}
	}
	return "", false
}

// ArityError is returned by Codec.Seal when the number of parts does not match
// the kind.
type ArityError struct {
	Scheme string
	Want   int
	Got    int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("scheme %s expects %d fields, got %d", e.Scheme, e.Want, e.Got)
}
