// Package cache implementa ports.TenantCache y ports.InFlightGuard sobre Redis y en proceso.
// Toda clave lleva el prefijo tenant:{tenant_id}: para que ningún valor cruce tenants.
package cache

import (
	"github.com/jhoicas/Contabilidad-api/internal/application/ports"
)

var (
	_ ports.TenantCache   = (*Redis)(nil)
	_ ports.TenantCache   = (*Memory)(nil)
	_ ports.InFlightGuard = (*RedisGuard)(nil)
)

// TenantPrefix prefijo común de las claves de un tenant.
func TenantPrefix(tenantID string) string {
	return "tenant:" + tenantID + ":"
}

// Key clave de un valor cacheado: tenant:{id}:cache:{key}.
func Key(tenantID, key string) string {
	return TenantPrefix(tenantID) + "cache:" + key
}

// GuardKey clave de la guarda en vuelo de una Idempotency-Key: tenant:{id}:idem:{key}.
func GuardKey(tenantID, key string) string {
	return TenantPrefix(tenantID) + "idem:" + key
}
