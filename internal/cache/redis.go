package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/TheB2D/Glass/internal/config"
	"github.com/TheB2D/Glass/internal/domain"
)

// RedisCache is a PhotoCache backed by Redis, for deployments where viewers
// and the capture bridge run as separate processes. Values are JSON; photo
// bytes ride along base64-encoded by encoding/json.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}, nil
}

func (c *RedisCache) key(userID string) string {
	return fmt.Sprintf("%s:%s", c.prefix, userID)
}

func (c *RedisCache) Put(ctx context.Context, userID string, photo *domain.Photo) error {
	data, err := json.Marshal(photo)
	if err != nil {
		return fmt.Errorf("failed to marshal photo: %w", err)
	}
	if err := c.client.Set(ctx, c.key(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

func (c *RedisCache) Latest(ctx context.Context, userID string) (*domain.Photo, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var photo domain.Photo
	if err := json.Unmarshal(data, &photo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal photo: %w", err)
	}
	return &photo, nil
}

func (c *RedisCache) ByRequestID(ctx context.Context, userID, requestID string) (*domain.Photo, error) {
	photo, err := c.Latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	if photo.RequestID != requestID {
		return nil, ErrNotFound
	}
	return photo, nil
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
