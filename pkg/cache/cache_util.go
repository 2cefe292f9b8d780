package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a thin namespaced wrapper over redis used for session token
// mirrors and short-lived oauth state nonces.
type Cache struct {
	client redis.UniversalClient
}

func NewCache(addr, password string) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	return &Cache{client: rdb}
}

func (c *Cache) Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error {
	return c.client.Set(ctx, namespace+":"+key, value, ttl).Err()
}

func (c *Cache) Get(ctx context.Context, namespace, key string) (string, error) {
	return c.client.Get(ctx, namespace+":"+key).Result()
}

func (c *Cache) Delete(ctx context.Context, namespace, key string) error {
	return c.client.Del(ctx, namespace+":"+key).Err()
}

// GetDel fetches a key and removes it in one round trip. Used for
// single-use oauth state nonces.
func (c *Cache) GetDel(ctx context.Context, namespace, key string) (string, error) {
	return c.client.GetDel(ctx, namespace+":"+key).Result()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
