package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned when a destroyed buffer is read.
var ErrDestroyed = errors.New("secure buffer has been destroyed")

// SecureBuffer provides memory-safe storage for a token or other secret.
//
// memguard.Enclave has no Destroy method. Destroy drops the reference and the
// encrypted data is collected; call memguard.Purge at exit to wipe the keys.
type SecureBuffer struct {
	enclave *memguard.Enclave
	size    int

	mu        sync.RWMutex
	destroyed bool
}

// NewSecureBuffer moves data into an encrypted enclave. memguard wipes data
// after copying, so the caller's slice is zeroed on return.
func NewSecureBuffer(data []byte) (*SecureBuffer, error) {
	size := len(data)
	if size == 0 {
		// memguard refuses empty enclaves
		return &SecureBuffer{}, nil
	}

	enclave := memguard.NewEnclave(data)
	if enclave == nil {
		return nil, errors.New("failed to create memory enclave")
	}
	return &SecureBuffer{enclave: enclave, size: size}, nil
}

// NewSecureString copies s into an enclave. The string itself cannot be wiped.
func NewSecureString(s string) (*SecureBuffer, error) {
	return NewSecureBuffer([]byte(s))
}

// Len returns the size of the protected data.
func (s *SecureBuffer) Len() int {
	return s.size
}

// Open decrypts the data into a locked buffer. The caller MUST call Destroy on
// the returned buffer.
func (s *SecureBuffer) Open() (*memguard.LockedBuffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return nil, ErrDestroyed
	}
	if s.enclave == nil {
		return memguard.NewBuffer(0), nil
	}
	return s.enclave.Open()
}

// Reveal returns the protected data as a string. The returned string lives in
// ordinary memory; keep it only as long as needed.
func (s *SecureBuffer) Reveal() (string, error) {
	locked, err := s.Open()
	if err != nil {
		return "", err
	}
	defer locked.Destroy()
	return string(locked.Bytes()), nil
}

// Destroy marks the buffer as destroyed. It is idempotent.
func (s *SecureBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}
	s.enclave = nil
	s.destroyed = true
}

// Destroyed reports whether Destroy was called.
func (s *SecureBuffer) Destroyed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destroyed
}
