// Package cache define el puerto de caché efímera del servicio.
//
// Se usa para los login codes de un solo uso del intercambio
// código→tokens y para el cacheo de JWKS. Dos backends: memoria
// (proceso único, default) y Redis (multi-réplica).
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss indica que la clave no existe o expiró.
var ErrMiss = errors.New("cache: miss")

// Cache es un KV efímero orientado a bytes con TTL por entrada.
type Cache interface {
	// Get devuelve el valor o ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set guarda el valor con el TTL dado (ttl <= 0 usa el default del backend).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete elimina la clave; borrar una clave inexistente no es error.
	Delete(ctx context.Context, key string) error

	// GetDel devuelve el valor y lo elimina en forma atómica, o ErrMiss.
	// Es la primitiva de los códigos de un solo uso.
	GetDel(ctx context.Context, key string) ([]byte, error)
}
