package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/3IMAD69/LocalCut-sub000/internal/engine"
)

// ProbeCache caches decode-engine probe results in Redis so repeated
// imports of the same file skip the ffprobe round trip. The key carries
// path, size and mtime, so an edited file misses naturally.
type ProbeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProbeCache creates a probe cache and verifies the connection.
func NewProbeCache(host string, port int, password string, db int, ttl time.Duration) (*ProbeCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &ProbeCache{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection
func (c *ProbeCache) Close() error {
	return c.client.Close()
}

// Ping checks the connection.
func (c *ProbeCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func probeKey(path string) (string, error) {
	st, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("probe:%s:%d:%d", path, st.Size(), st.ModTime().Unix()), nil
}

// Get retrieves a cached probe result. A nil result with nil error is a
// cache miss; stat failures are treated as misses so a vanished file never
// blocks registration error reporting downstream.
func (c *ProbeCache) Get(ctx context.Context, path string) (*engine.InputInfo, error) {
	key, err := probeKey(path)
	if err != nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get probe result from cache: %w", err)
	}

	var info engine.InputInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal probe result: %w", err)
	}

	return &info, nil
}

// Set caches a probe result.
func (c *ProbeCache) Set(ctx context.Context, path string, info *engine.InputInfo) error {
	key, err := probeKey(path)
	if err != nil {
		return err
	}

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal probe result: %w", err)
	}

	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate drops the cached probe result for a path.
func (c *ProbeCache) Invalidate(ctx context.Context, path string) error {
	key, err := probeKey(path)
	if err != nil {
		return nil
	}
	return c.client.Del(ctx, key).Err()
}
