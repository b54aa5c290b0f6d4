// Package cache stores rendered scenes so repeat requests for the same seed
// and geometry skip regeneration. Only deterministic passes are cacheable.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxEntries bounds a MemoryCache built with a non-positive size.
const DefaultMaxEntries = 256

// ErrCacheMiss is returned by helpers when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a byte store with per-entry expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key builds a cache key as prefix:sha256(parts...). Parts that cannot be
// encoded as JSON, such as NaN or channels, are an error.
func Key(prefix string, parts ...any) (string, error) {
	data, err := json.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("cache key %s: %w", prefix, err)
	}
	sum := sha256.Sum256(data)
	return prefix + ":" + hex.EncodeToString(sum[:16]), nil
}

// GetJSON decodes the entry at key into v. It returns ErrCacheMiss when absent.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(data, v)
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}

// NullCache never stores anything.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error { return nil }
func (NullCache) Close() error { return nil }

type entry struct {
	data    []byte
	expires time.Time
}

// MemoryCache keeps up to a fixed number of entries in process, evicting
// the least recently used. It is the default when no redis URL is configured.
type MemoryCache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, entry]
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache holding at most
// maxEntries entries.
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	entries, err := lru.New[string, entry](maxEntries)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &MemoryCache{entries: entries, now: time.Now}
}

// Get returns the entry at key unless it has expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		c.entries.Remove(key)
		return nil, false, nil
	}
	return e.data, true, nil
}

// Set stores data at key. A ttl of zero never expires.
func (c *MemoryCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{data: data}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.entries.Add(key, e)
	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.entries.Remove(key)
	return nil
}

// Len reports how many entries are held, expired ones included.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// Close drops every entry.
func (c *MemoryCache) Close() error {
	c.entries.Purge()
	return nil
}

var (
	_ Cache = NullCache{}
	_ Cache = (*MemoryCache)(nil)
)
