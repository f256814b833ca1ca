package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options tunes the client beyond what the URL carries.
// MaxRetries of -1 disables retries.
type Options struct {
	DialTimeout time.Duration
	MaxRetries  int
}

// NewClient creates a new Redis client and verifies it with a ping.
func NewClient(ctx context.Context, redisURL string, tune ...Options) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	for _, t := range tune {
		if t.DialTimeout > 0 {
			opts.DialTimeout = t.DialTimeout
		}
		if t.MaxRetries != 0 {
			opts.MaxRetries = t.MaxRetries
		}
	}

	client := redis.NewClient(opts)

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
