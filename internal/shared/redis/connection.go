package redis

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"nations-server/internal/shared/config"

	"github.com/redis/go-redis/v9"
)

const (
	clientName        = "nations-server"
	dialTimeout       = 2 * time.Second
	pingTimeout       = 3 * time.Second
	minIdleConns      = 2
	defaultCmdTimeout = 500 * time.Millisecond
	defaultPoolSize   = 10
)

type Client struct {
	*redis.Client
}

// Options resolves the client options from either REDIS_URL or host/port fields.
// Timeouts and pool sizing always come from the config so a URL cannot loosen them.
func Options(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	cmdTimeout := cfg.CommandTimeout
	if cmdTimeout <= 0 {
		cmdTimeout = defaultCmdTimeout
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}

	opts.ClientName = clientName
	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = cmdTimeout
	opts.WriteTimeout = cmdTimeout
	opts.PoolSize = poolSize
	opts.MinIdleConns = min(minIdleConns, poolSize)
	return opts, nil
}

// Connect returns nil without error when Redis is disabled; callers fall back to in-memory state.
func Connect(cfg config.RedisConfig) (*Client, error) {
	logger := slog.With("component", "redis", "operation", "connect")

	if !cfg.Enabled {
		logger.Info("Redis disabled, using in-memory fallback")
		return nil, nil
	}

	opts, err := Options(cfg)
	if err != nil {
		logger.Error("Invalid Redis configuration", "error", err)
		return nil, err
	}

	logger.Debug("Connecting to Redis",
		"addr", opts.Addr,
		"db", opts.DB,
		"pool_size", opts.PoolSize,
		"command_timeout", opts.ReadTimeout,
	)
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to ping Redis", "addr", opts.Addr, "error", err)
		if closeErr := rdb.Close(); closeErr != nil {
			logger.Error("Failed to close Redis client after ping failure", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	logger.Info("Redis connection established", "addr", opts.Addr)
	return &Client{rdb}, nil
}

func (c *Client) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
