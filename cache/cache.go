package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultTTL is used when a cache is created with a zero TTL
const DefaultTTL = 300 * time.Second

// Key prefixes per cached entity class
const (
	PrefixPayments   = "payments:"
	PrefixProperties = "properties:"
)

// Cache is a non-authoritative read-through cache. Implementations never
// return errors: a failing backend behaves like an empty cache.
type Cache interface {
	// Get decodes the value under key into dest and reports whether it was found
	Get(ctx context.Context, key string, dest interface{}) bool
	// Set stores value under key. A zero ttl uses the cache default.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	// InvalidatePrefix drops every key starting with prefix
	InvalidatePrefix(ctx context.Context, prefix string)
}

// Key builds a stable key for a query filter. Struct fields marshal in
// declaration order and map keys sorted, so equal filters give equal keys.
func Key(prefix string, filter interface{}) string {
	data, err := json.Marshal(filter)
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", filter))
	}
	sum := sha256.Sum256(data)
	return prefix + hex.EncodeToString(sum[:])
}

// GetOrLoad returns the cached value for key, or calls load and caches its result
func GetOrLoad[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var result T
	if c.Get(ctx, key, &result) {
		return result, nil
	}

	result, err := load()
	if err != nil {
		return result, err
	}

	c.Set(ctx, key, result, ttl)
	return result, nil
}

// Nop is a cache that stores nothing
type Nop struct{}

// NewNop creates a cache that always misses
func NewNop() Nop {
	return Nop{}
}

// Get always misses
func (Nop) Get(context.Context, string, interface{}) bool { return false }

// Set discards the value
func (Nop) Set(context.Context, string, interface{}, time.Duration) {}

// InvalidatePrefix does nothing
func (Nop) InvalidatePrefix(context.Context, string) {}
