package cache

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// SettingsCache fronts the settings table with short-lived redis entries.
// Runtime settings are read on every query, so the read path has to be
// cheap; writes invalidate so the very next query observes the change.
type SettingsCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewSettingsCache(client *redisv9.Client, ttl time.Duration) *SettingsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SettingsCache{client: client, ttl: ttl}
}

func (c *SettingsCache) Get(ctx context.Context, key string) (string, bool, error) {
	raw, err := c.client.Get(ctx, c.settingKey(key)).Result()
	if err == redisv9.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get setting failed: %w", err)
	}
	return raw, true, nil
}

func (c *SettingsCache) Set(ctx context.Context, key, value string) error {
	if err := c.client.Set(ctx, c.settingKey(key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set setting failed: %w", err)
	}
	return nil
}

func (c *SettingsCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.settingKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete setting failed: %w", err)
	}
	return nil
}

func (c *SettingsCache) settingKey(key string) string {
	return fmt.Sprintf("settings:%s", key)
}
