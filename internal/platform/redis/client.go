package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"tributo/internal/platform/config"
)

// Client wraps the go-redis client with health and cache statistics
// capabilities used by the pulse check.
type Client struct {
	*redis.Client
}

// New creates a new Redis client from the provided configuration.
// Returns nil if the URL is empty (Redis not configured).
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// HitRatio returns the server-wide keyspace hit ratio in [0,1] from INFO
// stats. Returns 0 when no lookups have been recorded yet.
func (c *Client) HitRatio(ctx context.Context) (float64, error) {
	info, err := c.Info(ctx, "stats").Result()
	if err != nil {
		return 0, fmt.Errorf("redis info stats: %w", err)
	}
	hits := parseInfoInt(info, "keyspace_hits")
	misses := parseInfoInt(info, "keyspace_misses")
	total := hits + misses
	if total == 0 {
		return 0, nil
	}
	return float64(hits) / float64(total), nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.Client.Close()
}

func parseInfoInt(info, field string) int64 {
	for _, line := range strings.Split(info, "\r\n") {
		if val, ok := strings.CutPrefix(line, field+":"); ok {
			n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
			if err != nil {
				return 0
			}
			return n
		}
	}
	return 0
}
