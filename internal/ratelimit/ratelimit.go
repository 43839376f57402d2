package ratelimit

import (
	"log/slog"

	"nations-server/internal/shared/config"
	"nations-server/internal/shared/redis"
)

// New picks the limiter for the deployment: none when disabled, Redis when a
// client is connected, otherwise per-process buckets.
func New(cfg config.RateLimitConfig, client *redis.Client) Limiter {
	switch {
	case !cfg.Enabled:
		slog.Info("Rate limiting disabled", "component", "rate_limiter")
		return Disabled{}
	case client != nil:
		slog.Info("Using Redis rate limiter", "component", "rate_limiter")
		return NewRedis(client.Client)
	default:
		slog.Info("Using in-memory rate limiter", "component", "rate_limiter")
		return NewMemory()
	}
}
