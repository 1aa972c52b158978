package authenticator

import (
	"sync"
	"time"

	"github.com/systmms/dsauth/internal/secure"
)

// cacheKey identifies one cached token.
type cacheKey struct {
	AccountID string
	TokenType string
}

type cacheEntry struct {
	token     *secure.SecureBuffer
	expiresAt time.Time
}

// TokenCache stores protected auth tokens in memory, per account and token
// type. Tokens are sealed in enclaves and never persisted to disk.
type TokenCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[cacheKey]cacheEntry
}

// NewTokenCache creates a cache whose entries live for ttl. A ttl of zero or
// less disables caching.
func NewTokenCache(ttl time.Duration) *TokenCache {
	return &TokenCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[cacheKey]cacheEntry),
	}
}

// Get retrieves the cached token if it exists and is not expired.
func (c *TokenCache) Get(accountID, tokenType string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{accountID, tokenType}
	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().After(e.expiresAt) {
		c.dropLocked(key)
		return "", false
	}

	tok, err := e.token.Reveal()
	if err != nil {
		c.dropLocked(key)
		return "", false
	}
	return tok, true
}

// Set stores a token. A small buffer is subtracted from the TTL so callers
// refresh before expiry.
func (c *TokenCache) Set(accountID, tokenType, token string) {
	if c.ttl <= 0 || token == "" {
		return
	}
	buf, err := secure.NewSecureString(token)
	if err != nil {
		return
	}

	ttl := c.ttl
	if buffer := 5 * time.Second; ttl > 2*buffer {
		ttl -= buffer
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey{accountID, tokenType}
	c.dropLocked(key)
	c.entries[key] = cacheEntry{token: buf, expiresAt: c.now().Add(ttl)}
}

// Invalidate removes every entry holding token. An empty tokenType matches
// all token types. It returns the number of entries removed.
func (c *TokenCache) Invalidate(tokenType, token string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, e := range c.entries {
		if tokenType != "" && key.TokenType != tokenType {
			continue
		}
		if v, err := e.token.Reveal(); err == nil && v == token {
			c.dropLocked(key)
			n++
		}
	}
	return n
}

// Forget removes every entry of an account.
func (c *TokenCache) Forget(accountID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key.AccountID == accountID {
			c.dropLocked(key)
		}
	}
}

// Clear removes all cached tokens
func (c *TokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		c.dropLocked(key)
	}
}

// Len returns the number of entries, expired ones included.
func (c *TokenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TokenCache) dropLocked(key cacheKey) {
	if e, ok := c.entries[key]; ok {
		e.token.Destroy()
		delete(c.entries, key)
	}
}
