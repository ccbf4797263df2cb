package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memEntry struct {
	value   []byte
	expires time.Time
}

// Memory TenantCache en proceso; se usa sin REDIS_URL y en tests.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	now     func() time.Time
}

// NewMemory construye la caché vacía.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memEntry), now: time.Now}
}

func (c *Memory) Get(_ context.Context, tenantID, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[Key(tenantID, key)]
	c.mu.RUnlock()
	if !ok || (!e.expires.IsZero() && !c.now().Before(e.expires)) {
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (c *Memory) Set(_ context.Context, tenantID, key string, value []byte, ttl time.Duration) error {
	e := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[Key(tenantID, key)] = e
	c.mu.Unlock()
	return nil
}

func (c *Memory) InvalidateTenant(_ context.Context, tenantID string) error {
	prefix := TenantPrefix(tenantID)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

// Len cantidad de entradas (tests).
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
