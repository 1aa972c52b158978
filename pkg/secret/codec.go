package secret

import (
	"errors"
	"math/rand/v2"
	"net/url"
	"strings"
)

const (
	// paddingPool holds the characters random padding is drawn from. None of
	// them is a delimiter.
	paddingPool = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_.~!*'"

	// delimiters separate padding from values. The value encoder always escapes
	// them.
	delimiters = "+/$&=#@"

	maxPadding = 16

	// nullValue stands in for a nil field. A literal "?" is encoded as "%3F".
	nullValue = "?"

	// legacyDelimiter joined fields in the padding-free format.
	legacyDelimiter = ":"
)

// Join frames parts into a single plaintext string. The output differs between
// calls because of the random padding, but Split always recovers parts.
func Join(parts []*string) string {
	var b strings.Builder
	b.Grow(len(parts) * (2*maxPadding + 8))

	for _, part := range parts {
		appendRandom(&b, paddingPool, rand.IntN(maxPadding+1))
		appendRandom(&b, delimiters, 1)
		if part == nil {
			b.WriteString(nullValue)
		} else {
			b.WriteString(encodeValue(*part))
		}
		appendRandom(&b, delimiters, 1)
		appendRandom(&b, paddingPool, rand.IntN(maxPadding+1))
	}
	return b.String()
}

// Split recovers exactly arity fields from a string produced by Join. Strings in
// the legacy ":"-joined format are accepted when they contain no delimiter
// characters at all.
func Split(plaintext string, arity int) ([]*string, error) {
	if arity < 0 {
		return nil, &MalformedSecretError{Reason: "negative field count"}
	}

	tokens := splitAny(plaintext, delimiters)
	if len(tokens) == 2*arity+1 {
		return decodeValues(tokens, 1, 2, arity)
	}

	if strings.ContainsAny(plaintext, delimiters) {
		return nil, &MalformedSecretError{
			Reason: "number of parts doesn't match",
		}
	}
	return splitLegacy(plaintext, arity)
}

// splitLegacy handles secrets written before padding was introduced.
func splitLegacy(plaintext string, arity int) ([]*string, error) {
	tokens := strings.Split(plaintext, legacyDelimiter)
	if len(tokens) != arity {
		return nil, &MalformedSecretError{
			Reason: "number of parts doesn't match",
		}
	}
	return decodeValues(tokens, 0, 1, arity)
}

func decodeValues(tokens []string, start, step, count int) ([]*string, error) {
	result := make([]*string, count)
	for i := 0; i < count; i++ {
		token := tokens[start+i*step]
		if token == nullValue {
			continue
		}
		value, err := url.PathUnescape(token)
		if err != nil {
			return nil, &MalformedSecretError{Reason: "invalid escape sequence", Err: err}
		}
		result[i] = &value
	}
	return result, nil
}

// encodeValue percent-encodes everything except ALPHA, DIGIT and "-_.~".
func encodeValue(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// splitAny splits s around every occurrence of any byte in seps, keeping empty
// tokens. All separators are single-byte ASCII.
func splitAny(s, seps string) []string {
	tokens := make([]string, 0, 8)
	for {
		i := strings.IndexAny(s, seps)
		if i < 0 {
			return append(tokens, s)
		}
		tokens = append(tokens, s[:i])
		s = s[i+1:]
	}
}

func appendRandom(b *strings.Builder, pool string, n int) {
	for ; n > 0; n-- {
		b.WriteByte(pool[rand.IntN(len(pool))])
	}
}

// Codec binds Join and Split to an obfuscation strategy and an optional key
// fragment. A Codec is immutable and safe for concurrent use.
type Codec struct {
	strategy    Obfuscator
	keyFragment string
}

// Obfuscator is the subset of obfuscation.Strategy the codec needs.
type Obfuscator interface {
	Name() string
	Obfuscate(keyFragment string, plaintext *string) *string
	Deobfuscate(keyFragment string, obfuscated *string) (*string, error)
}

// NewCodec returns a codec that obfuscates with strategy.
func NewCodec(strategy Obfuscator) *Codec {
	return &Codec{strategy: strategy}
}

// WithKeyFragment returns a copy of the codec that passes keyFragment to the
// strategy. The same fragment must be used to seal and to unprotect.
func (c *Codec) WithKeyFragment(keyFragment string) *Codec {
	return &Codec{strategy: c.strategy, keyFragment: keyFragment}
}

// Strategy returns the name of the obfuscation strategy.
func (c *Codec) Strategy() string {
	return c.strategy.Name()
}

// Seal joins and obfuscates parts into a protected secret of the given kind. The
// number of parts must equal the arity of kind.
func (c *Codec) Seal(kind Kind, parts ...*string) (*Protected, error) {
	if len(parts) != kind.Arity() {
		return nil, &ArityError{Scheme: kind.Scheme, Want: kind.Arity(), Got: len(parts)}
	}

	joined := Join(parts)
	blob := c.strategy.Obfuscate(c.keyFragment, &joined)
	payload := kind.Scheme + schemeDelimiter
	if blob != nil {
		payload += *blob
	}

	fields := make([]*string, len(parts))
	copy(fields, parts)

	return &Protected{
		kind:     kind,
		payload:  payload,
		fields:   fields,
		readable: true,
	}, nil
}

// Open parses s as a secret of the given kind and unprotects it.
func (c *Codec) Open(kind Kind, s string) (*Protected, error) {
	p, err := Parse(kind, s)
	if err != nil {
		return nil, err
	}
	if err := p.Unprotect(c); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Codec) reveal(kind Kind, blob string) ([]*string, error) {
	plain, err := c.strategy.Deobfuscate(c.keyFragment, &blob)
	if err != nil {
		return nil, &MalformedSecretError{Scheme: kind.Scheme, Reason: "cannot deobfuscate", Err: err}
	}
	if plain == nil {
		return nil, &MalformedSecretError{Scheme: kind.Scheme, Reason: "empty payload"}
	}

	fields, err := Split(*plain, kind.Arity())
	if err != nil {
		var malformed *MalformedSecretError
		if errors.As(err, &malformed) && malformed.Scheme == "" {
			malformed.Scheme = kind.Scheme
		}
		return nil, err
	}
	return fields, nil
}
