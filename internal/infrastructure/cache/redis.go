package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig parámetros del cliente Redis.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	PingTimeout  time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	if c.DialTimeout <= 0 {
		c.DialTimeout = 3 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 2 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 2 * time.Second
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 20
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = 2 * time.Second
	}
	return c
}

// OpenRedis crea el cliente y verifica conectividad con PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	cfg = cfg.withDefaults()
	if cfg.Addr == "" {
		return nil, errors.New("cache: REDIS_ADDR vacío")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: ping a redis falló: %w", err)
	}
	return rdb, nil
}

// Redis TenantCache sobre go-redis.
type Redis struct {
	rdb *redis.Client
}

// NewRedis construye la caché.
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func (c *Redis) Get(ctx context.Context, tenantID, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, Key(tenantID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *Redis) Set(ctx context.Context, tenantID, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, Key(tenantID, key), value, ttl).Err()
}

// InvalidateTenant borra los valores cacheados del tenant con SCAN para no bloquear Redis.
// Las guardas de idempotencia no se tocan.
func (c *Redis) InvalidateTenant(ctx context.Context, tenantID string) error {
	pattern := TenantPrefix(tenantID) + "cache:*"
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Ping estado de Redis para /health.
func (c *Redis) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// RedisGuard guarda en vuelo compartida entre instancias (SET NX con TTL).
type RedisGuard struct {
	rdb *redis.Client
}

// NewRedisGuard construye la guarda.
func NewRedisGuard(rdb *redis.Client) *RedisGuard {
	return &RedisGuard{rdb: rdb}
}

func (g *RedisGuard) Acquire(ctx context.Context, tenantID, key string, ttl time.Duration) (bool, error) {
	return g.rdb.SetNX(ctx, GuardKey(tenantID, key), time.Now().UnixMilli(), ttl).Result()
}

func (g *RedisGuard) Release(ctx context.Context, tenantID, key string) error {
	return g.rdb.Del(ctx, GuardKey(tenantID, key)).Err()
}
