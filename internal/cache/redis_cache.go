package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const sessionKey = "shoez:session"

type RedisSessionCache struct {
	client *redis.Client
	key    string
}

func NewRedisSessionCache(addr string, password string, db int) *RedisSessionCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisSessionCache{client: client, key: sessionKey}
}

func (c *RedisSessionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSessionCache) Close() error {
	return c.client.Close()
}

func (c *RedisSessionCache) Load(ctx context.Context) (*SessionRecord, bool, error) {
	val, err := c.client.Get(ctx, c.key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var record SessionRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return nil, false, err
	}
	return &record, true, nil
}

func (c *RedisSessionCache) Save(ctx context.Context, record SessionRecord, ttl time.Duration) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, payload, ttl).Err()
}

func (c *RedisSessionCache) Clear(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
