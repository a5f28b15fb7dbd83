package auth

import (
	"sync"
	"time"

	bridge "github.com/ajitnk-lab/agentcore-bridge"
)

// DefaultSafetyMargin keeps a credential out of use shortly before its
// advertised expiry so in-flight calls never carry a token that lapses
// mid-request.
const DefaultSafetyMargin = 30 * time.Second

// TokenCache is an explicit, expiry-checked credential cache keyed by client
// identity. It is an opt-in handle passed to the Manager, never a package
// global; the default configuration runs without one.
//
// Concurrent callers observing a miss may each trigger a refresh. Duplicate
// refreshes are tolerated: the token endpoint is idempotent and cheap.
type TokenCache struct {
	mu           sync.RWMutex
	entries      map[string]bridge.Credential
	safetyMargin time.Duration
}

// NewTokenCache creates a cache with the given safety margin; a non-positive
// margin falls back to DefaultSafetyMargin.
func NewTokenCache(safetyMargin time.Duration) *TokenCache {
	if safetyMargin <= 0 {
		safetyMargin = DefaultSafetyMargin
	}
	return &TokenCache{
		entries:      make(map[string]bridge.Credential),
		safetyMargin: safetyMargin,
	}
}

// Get returns the cached credential for a client while it remains valid at
// `now` with the safety margin applied.
func (c *TokenCache) Get(clientID string, now time.Time) (bridge.Credential, bool) {
	if c == nil {
		return bridge.Credential{}, false
	}
	c.mu.RLock()
	cred, ok := c.entries[clientID]
	c.mu.RUnlock()
	if !ok || !cred.Valid(now, c.safetyMargin) {
		return bridge.Credential{}, false
	}
	return cred, true
}

// Put stores a credential for a client identity.
func (c *TokenCache) Put(clientID string, cred bridge.Credential) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries[clientID] = cred
	c.mu.Unlock()
}

// Evict drops the cached credential for a client identity.
func (c *TokenCache) Evict(clientID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, clientID)
	c.mu.Unlock()
}
