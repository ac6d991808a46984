// Package redis implementa cache.Cache sobre go-redis (multi-réplica).
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/sesamo/internal/cache"
)

type redisCache struct {
	rdb        *goredis.Client
	defaultTTL time.Duration
	prefix     string
}

// New conecta a Redis y valida la conexión con un PING.
func New(ctx context.Context, addr, password string, db int, defaultTTL time.Duration) (cache.Cache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &redisCache{rdb: rdb, defaultTTL: defaultTTL, prefix: "sesamo:"}, nil
}

func (r *redisCache) key(k string) string { return r.prefix + k }

func (r *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, cache.ErrMiss
	}
	return v, err
}

func (r *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	return r.rdb.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *redisCache) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.key(key)).Err()
}

func (r *redisCache) GetDel(ctx context.Context, key string) ([]byte, error) {
	v, err := r.rdb.GetDel(ctx, r.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, cache.ErrMiss
	}
	return v, err
}
