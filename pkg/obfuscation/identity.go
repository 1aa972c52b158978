package obfuscation

// IdentityName is the registry name of the Identity strategy.
const IdentityName = "identity"

// Identity returns every value unchanged. Do not use it outside of tests.
type Identity struct{}

// Name returns "identity".
func (Identity) Name() string { return IdentityName }

// Obfuscate returns plaintext.
func (Identity) Obfuscate(_ string, plaintext *string) *string {
	return plaintext
}

// Deobfuscate returns obfuscated.
func (Identity) Deobfuscate(_ string, obfuscated *string) (*string, error) {
	return obfuscated, nil
}
