// Package secret implements the protected secret format used to persist and pass
// around multi-field credentials as one opaque string.
//
// # Format
//
// A protected secret is always
//
//	<scheme>:<obfuscated blob>
//
// The scheme tag identifies the Kind of the secret, which fixes the number and the
// order of its fields. The blob is the output of an obfuscation.Strategy applied to
// the joined fields.
//
// # Joining fields
//
// Join frames an ordered list of nullable strings. Every field is surrounded by a
// random run of padding characters and a pair of delimiter characters:
//
//	<padding><delim><value><delim><padding>
//
// Values are percent-encoded, so delimiter characters never appear inside them, and
// nil fields are written as a literal "?" (which would be "%3F" when encoded). The
// padding carries no information; it only breaks up obvious patterns in the
// obfuscated output and is dropped by Split.
//
// Split also accepts the older padding-free format in which encoded values were
// joined with ":".
//
// # Lifecycle
//
// A Protected value built from fields with Codec.Seal can be read right away. A
// Protected value parsed from storage with Parse is opaque until Unprotect is
// called with a Codec, because the codec (and its key fragment) is often not known
// where the string is first read.
//
//	codec := secret.NewCodec(obfuscation.NewXOR())
//
//	p, err := codec.Seal(secret.UserCredentialsSecret,
//	    secret.String("alice"), secret.String("s3cret"), nil)
//	if err != nil {
//	    return err
//	}
//	stored := p.String() // "user_creds_secret:..."
//
//	q, err := secret.Parse(secret.UserCredentialsSecret, stored)
//	if err != nil {
//	    return err
//	}
//	if err := q.Unprotect(codec); err != nil {
//	    return err
//	}
//	creds, _ := q.Credentials()
//
// # Security
//
// This package does not encrypt anything. It protects against casual inspection
// only.
package secret
