// Package scheme maps authentication scheme tags to the handlers that know
// their secret layout and how to turn a stored credential into a session
// token.
//
// A Registry is built once from an ordered list of (tag, handler id) bindings.
// Every binding is validated when the registry is created, so a typo in the
// configuration fails at startup rather than on first use. Afterwards the
// registry is read-only and safe for concurrent lookups.
//
// Two handlers are built in:
//
//   - "anonymous": secrets and tokens carry no data and never need a refresh.
//   - "password": stored secrets hold username, password and realm; the
//     session token carries the same three fields under its own scheme tag.
//
// Auth token types are written as URIs whose scheme is the tag, for example
// "password:" or "password://example.com". LookupTokenType resolves them.
//
// Opening a Session materializes a token for an account, following the
// Uninitialized → SecretLoaded → [Refreshing → SecretLoaded] → Ready sequence.
// At most one refresh is attempted.
package scheme
