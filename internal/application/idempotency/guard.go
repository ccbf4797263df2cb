package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryGuard guarda en vuelo en proceso (una sola instancia de la API).
type MemoryGuard struct {
	mu    sync.Mutex
	until map[string]time.Time
}

// NewMemoryGuard construye la guarda.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{until: make(map[string]time.Time)}
}

func guardKey(tenantID, key string) string {
	return "tenant:" + tenantID + ":idem:" + key
}

// Acquire reserva la clave por ttl.
func (g *MemoryGuard) Acquire(_ context.Context, tenantID, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := guardKey(tenantID, key)
	now := time.Now()
	if exp, ok := g.until[k]; ok && now.Before(exp) {
		return false, nil
	}
	g.until[k] = now.Add(ttl)
	return true, nil
}

// Release libera la clave.
func (g *MemoryGuard) Release(_ context.Context, tenantID, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.until, guardKey(tenantID, key))
	return nil
}
