package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/example/eshiroflex/pkg/config"
	"github.com/example/eshiroflex/pkg/models"
)

const (
	productCacheTTL = 10 * time.Minute
	userCacheTTL    = 30 * time.Minute
)

// Cache is the Redis read-through cache for products and users.
type Cache struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewCache(cfg *config.RedisConfig) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) setJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, expiration).Err()
}

func (c *Cache) getJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func productKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}

func (c *Cache) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := c.getJSON(ctx, productKey(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Cache) SetProduct(ctx context.Context, p *models.Product) error {
	return c.setJSON(ctx, productKey(p.ID), p, productCacheTTL)
}

func (c *Cache) InvalidateProduct(ctx context.Context, id string) error {
	return c.client.Del(ctx, productKey(id)).Err()
}

func userKey(id string) string {
	return fmt.Sprintf("user:%s", id)
}

func (c *Cache) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := c.getJSON(ctx, userKey(id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Cache) SetUser(ctx context.Context, u *models.User) error {
	return c.setJSON(ctx, userKey(u.ID), u, userCacheTTL)
}

func (c *Cache) InvalidateUser(ctx context.Context, id string) error {
	return c.client.Del(ctx, userKey(id)).Err()
}
