package obfuscation

import (
	"encoding/base64"
	"fmt"
)

// Base64Name is the registry name of the Base64 strategy.
const Base64Name = "base64"

// Base64 encodes values with standard, padded base64. It offers no secrecy at
// all; the output only hides the value from somebody skimming a file.
type Base64 struct{}

// Name returns "base64".
func (Base64) Name() string { return Base64Name }

// Obfuscate base64-encodes the UTF-8 bytes of plaintext. The key fragment is
// ignored.
func (Base64) Obfuscate(_ string, plaintext *string) *string {
	if plaintext == nil {
		return nil
	}
	out := base64.StdEncoding.EncodeToString([]byte(*plaintext))
	return &out
}

// Deobfuscate decodes a value produced by Obfuscate.
func (Base64) Deobfuscate(_ string, obfuscated *string) (*string, error) {
	if obfuscated == nil {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(*obfuscated)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	out := string(raw)
	return &out, nil
}
