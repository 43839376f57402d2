package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Memory keeps one token bucket per user and command. Buckets refill continuously
// at Requests per Window and hold at most Requests tokens.
type Memory struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		buckets: make(map[string]*rate.Limiter),
		now:     time.Now,
	}
}

func (m *Memory) limiter(key string, l Limit) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, ok := m.buckets[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(l.Window/time.Duration(l.Requests)), l.Requests)
		m.buckets[key] = limiter
	}
	return limiter
}

func (m *Memory) Check(_ context.Context, userID int64, command string) error {
	l := LimitFor(command)
	key := fmt.Sprintf("%d:%s", userID, bucket(command))
	limiter := m.limiter(key, l)

	now := m.now()
	r := limiter.ReserveN(now, 1)
	if !r.OK() {
		return exceeded(userID, command, l.Window)
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		slog.Warn("Rate limit exceeded",
			"component", "rate_limiter",
			"user_id", userID,
			"command", command,
			"retry_after", delay,
		)
		return exceeded(userID, command, delay)
	}
	return nil
}

// Prune drops buckets that have refilled completely, which carry no state worth keeping.
func (m *Memory) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, limiter := range m.buckets {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(m.buckets, key)
			removed++
		}
	}
	return removed
}

// RunCleanup prunes idle buckets every interval until ctx is done.
func (m *Memory) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Prune(); n > 0 {
				slog.Debug("Pruned idle rate limit buckets", "component", "rate_limiter", "count", n)
			}
		}
	}
}
