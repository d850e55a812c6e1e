package auth

import (
	"context"
	"sync"
	"time"
)

// Authenticator resolves an access token to a user id.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

type cacheEntry struct {
	userID  string
	expires time.Time
}

// CachingAuthenticator wraps another Authenticator with a TTL-based in-memory
// cache so hot access tokens do not hit the session store on every request.
// The TTL should stay well below the access-token lifetime.
type CachingAuthenticator struct {
	base Authenticator
	ttl  time.Duration

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingAuthenticator returns an Authenticator that caches successful
// lookups for the provided TTL.
func NewCachingAuthenticator(base Authenticator, ttl time.Duration) *CachingAuthenticator {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachingAuthenticator{
		base:  base,
		ttl:   ttl,
		items: make(map[string]cacheEntry),
	}
}

// Authenticate returns the cached user id when available, otherwise delegates
// to the underlying authenticator and stores the result. Failures are never
// cached.
func (c *CachingAuthenticator) Authenticate(ctx context.Context, accessToken string) (string, error) {
	if c == nil || c.base == nil {
		return "", ErrSessionNotFound
	}

	now := time.Now()

	c.mu.RLock()
	entry, ok := c.items[accessToken]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.userID, nil
	}

	userID, err := c.base.Authenticate(ctx, accessToken)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.items[accessToken] = cacheEntry{userID: userID, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return userID, nil
}

// Invalidate drops a token from the cache, typically after logout.
func (c *CachingAuthenticator) Invalidate(accessToken string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.items, accessToken)
	c.mu.Unlock()
}
