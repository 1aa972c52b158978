package fakes

import (
	"sync"

	"github.com/zalando/go-keyring"
)

// FakeKeyringClient is a test double for the OS keyring
type FakeKeyringClient struct {
	mu sync.Mutex
	// Items is a map of service -> user -> value
	Items map[string]map[string]string
	// Err is returned by every operation if set
	Err error
}

// NewFakeKeyringClient creates an empty fake keyring
func NewFakeKeyringClient() *FakeKeyringClient {
	return &FakeKeyringClient{Items: make(map[string]map[string]string)}
}

func (f *FakeKeyringClient) Get(service, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	if v, ok := f.Items[service][user]; ok {
		return v, nil
	}
	return "", keyring.ErrNotFound
}

func (f *FakeKeyringClient) Set(service, user, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if f.Items[service] == nil {
		f.Items[service] = make(map[string]string)
	}
	f.Items[service][user] = password
	return nil
}

func (f *FakeKeyringClient) Delete(service, user string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if _, ok := f.Items[service][user]; !ok {
		return keyring.ErrNotFound
	}
	delete(f.Items[service], user)
	return nil
}
