// Package memory implementa cache.Cache sobre go-cache (proceso único).
package memory

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/sesamo/internal/cache"
)

type memoryCache struct {
	c *gocache.Cache

	// go-cache no tiene GETDEL atómico; el mutex cubre la ventana get+delete.
	mu sync.Mutex
}

// New crea un caché en memoria con TTL default y ciclo de limpieza.
func New(defaultTTL, cleanupInterval time.Duration) cache.Cache {
	return &memoryCache{c: gocache.New(defaultTTL, cleanupInterval)}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, cache.ErrMiss
	}
	return v.([]byte), nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	m.c.Set(key, buf, ttl)
	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

func (m *memoryCache) GetDel(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.c.Get(key)
	if !ok {
		return nil, cache.ErrMiss
	}
	m.c.Delete(key)
	return v.([]byte), nil
}
