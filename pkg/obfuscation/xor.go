package obfuscation

import (
	"encoding/base64"
	"fmt"
)

// XORName is the registry name of the XOR strategy.
const XORName = "xor"

// Two static key halves. The working key is their XOR, truncated to the length of
// xorKeyA. Changing either value breaks every secret stored with this strategy.
var (
	xorKeyA = []byte("uh9goBJKb97geÃ¼onbKJbb7hajds")
	xorKeyB = []byte{
		0xcf, 0x8f, 0x3c, 0xd3, 0x00, 0xe8, 0x53, 0xc6, 0xf5, 0xa5, 0xbb, 0xdc,
		0xab, 0x22, 0x18, 0x35, 0x14, 0xd4, 0x21, 0xaf, 0x3c, 0xe9, 0x79, 0x37,
		0xaf, 0xd0, 0x46, 0xc4, 0xf9, 0x44, 0x1c, 0xa9, 0x35, 0x9a, 0xb3, 0xbc,
		0xd7, 0x09, 0xe1, 0x00, 0xe2, 0x62, 0x00, 0xda, 0x89, 0x73, 0x8d, 0x44,
		0x9a, 0x94, 0xec, 0xb5, 0xa4, 0x94, 0x9d, 0xba, 0x0c, 0xdd, 0xda, 0xf4,
		0x37, 0x3c, 0xa4, 0x52, 0x19, 0x18, 0x50, 0xe2, 0x16, 0x7e, 0x8f, 0xdd,
		0x07, 0xa6, 0x21, 0x9d, 0x2f, 0x9f, 0x20, 0x90, 0xf4, 0x40, 0xe2, 0xa6,
		0x35, 0x73, 0x31, 0xd5, 0x03, 0x00, 0x21, 0xc0, 0xb1, 0x8f, 0x67, 0xd5,
		0xb3, 0xdd, 0xf6, 0xf1,
	}
)

// XOR obfuscates values by XORing their UTF-8 bytes with a fixed key and, when
// given, with the bytes of the key fragment. The result is base64 encoded.
//
// The key is compiled into the binary and there is no randomness, so identical
// inputs always produce identical outputs. Treat it as a slightly better Base64.
type XOR struct {
	key []byte
}

// NewXOR returns the XOR strategy with the built-in key.
func NewXOR() XOR {
	return XOR{key: xorBytes(xorKeyA, xorKeyB)}
}

// Name returns "xor".
func (XOR) Name() string { return XORName }

// Obfuscate returns nil and empty values unchanged.
func (x XOR) Obfuscate(keyFragment string, plaintext *string) *string {
	if plaintext == nil || *plaintext == "" {
		return plaintext
	}

	out := xorBytes([]byte(*plaintext), x.baseKey())
	if keyFragment != "" {
		out = xorBytes(out, []byte(keyFragment))
	}

	encoded := base64.StdEncoding.EncodeToString(out)
	return &encoded
}

// Deobfuscate reverses Obfuscate. It fails only when the value is not valid
// base64; a wrong key fragment yields a wrong value, not an error.
func (x XOR) Deobfuscate(keyFragment string, obfuscated *string) (*string, error) {
	if obfuscated == nil || *obfuscated == "" {
		return obfuscated, nil
	}

	raw, err := base64.StdEncoding.DecodeString(*obfuscated)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	if keyFragment != "" {
		raw = xorBytes(raw, []byte(keyFragment))
	}

	plain := string(xorBytes(raw, x.baseKey()))
	return &plain, nil
}

// baseKey tolerates the zero value XOR{}.
func (x XOR) baseKey() []byte {
	if len(x.key) == 0 {
		return xorBytes(xorKeyA, xorKeyB)
	}
	return x.key
}

// xorBytes returns a slice the length of first, XORed with second. second wraps
// around when it is shorter than first.
func xorBytes(first, second []byte) []byte {
	result := make([]byte, len(first))
	if len(second) == 0 {
		copy(result, first)
		return result
	}
	for i := range first {
		result[i] = first[i] ^ second[i%len(second)]
	}
	return result
}
