package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"nations-server/internal/shared/errors"
)

// Redis counts requests in fixed windows shared by every server instance.
type Redis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{
		client: client,
		prefix: "ratelimit",
		now:    time.Now,
	}
}

func (r *Redis) Check(ctx context.Context, userID int64, command string) error {
	l := LimitFor(command)
	now := r.now()

	window := l.Window.Milliseconds()
	index := now.UnixMilli() / window
	key := fmt.Sprintf("%s:%s:%d:%d", r.prefix, bucket(command), userID, index)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, l.Window)
		return nil
	})
	if err != nil {
		slog.Error("Rate limit check failed", "component", "rate_limiter", "user_id", userID, "command", command, "error", err)
		return errors.WrapStore("failed to check rate limit", err)
	}

	if incr.Val() > int64(l.Requests) {
		retryAfter := time.Duration((index+1)*window-now.UnixMilli()) * time.Millisecond
		slog.Warn("Rate limit exceeded",
			"component", "rate_limiter",
			"user_id", userID,
			"command", command,
			"retry_after", retryAfter,
		)
		return exceeded(userID, command, retryAfter)
	}
	return nil
}
