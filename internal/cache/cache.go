// Package cache holds short-lived derived results (stats, streaks,
// insights) keyed by user. Values are stored JSON encoded.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Cache is injected into services; core computations never see it.
type Cache interface {
	// GetInto decodes the cached value into dest and reports whether it was found.
	GetInto(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	// EvictPrefix drops every key starting with prefix.
	EvictPrefix(ctx context.Context, prefix string)
}

// UserPrefix is the key prefix shared by all derived results of one user.
func UserPrefix(userID string) string { return "insights:" + userID + ":" }

// Key builds a per-user cache key such as "insights:<uid>:stats:7".
func Key(userID string, parts ...string) string {
	return UserPrefix(userID) + strings.Join(parts, ":")
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a process-local TTL map.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	items map[string]*entry
}

// NewMemory returns a Memory cache, or Nop when ttl is not positive.
func NewMemory(ttl time.Duration) Cache {
	if ttl <= 0 {
		return Nop{}
	}
	return &Memory{ttl: ttl, now: time.Now, items: make(map[string]*entry)}
}

func (c *Memory) GetInto(_ context.Context, key string, dest any) (bool, error) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		cacheLookups.WithLabelValues("miss").Inc()
		return false, nil
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.items[key]; ok && cur == e {
			delete(c.items, key)
		}
		c.mu.Unlock()
		cacheLookups.WithLabelValues("miss").Inc()
		return false, nil
	}
	if err := json.Unmarshal(e.value, dest); err != nil {
		return false, fmt.Errorf("decode cache value %q: %w", key, err)
	}
	cacheLookups.WithLabelValues("hit").Inc()
	return true, nil
}

func (c *Memory) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = &entry{value: data, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *Memory) EvictPrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
}

// Len reports the number of stored keys, expired ones included.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) GetInto(context.Context, string, any) (bool, error) { return false, nil }
func (Nop) Set(context.Context, string, any) error              { return nil }
func (Nop) EvictPrefix(context.Context, string)                 {}
