package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"nations-server/internal/shared/config"
	"nations-server/internal/shared/errors"
	"nations-server/internal/shared/redis"
)

var base = time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)

// near tolerates the float rounding of token bucket refill rates.
func near(got, want time.Duration) bool {
	d := got - want
	return d > -time.Second && d < time.Second
}

func allowN(t *testing.T, l Limiter, userID int64, command string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := l.Check(context.Background(), userID, command); err != nil {
			t.Fatalf("%s call %d for user %d rejected: %v", command, i+1, userID, err)
		}
	}
}

func expectLimited(t *testing.T, l Limiter, userID int64, command string) time.Duration {
	t.Helper()
	err := l.Check(context.Background(), userID, command)
	if errors.GetType(err) != errors.ErrorTypeRateLimited {
		t.Fatalf("%s for user %d: expected rate_limited, got %v", command, userID, err)
	}
	return errors.RetryAfter(err)
}

func TestMemoryLimits(t *testing.T) {
	m := NewMemory()
	clock := base
	m.now = func() time.Time { return clock }

	allowN(t, m, 1, CommandAttack, 5)
	retry := expectLimited(t, m, 1, CommandAttack)
	if !near(retry, 12*time.Minute) {
		t.Errorf("retry after = %v, want 12m for one refilled token", retry)
	}

	allowN(t, m, 2, CommandAttack, 5)
	allowN(t, m, 1, CommandBuild, 10)
	expectLimited(t, m, 1, CommandBuild)

	clock = clock.Add(13 * time.Minute)
	allowN(t, m, 1, CommandAttack, 1)
	expectLimited(t, m, 1, CommandAttack)
}

func TestMemoryCreateNationOncePerDay(t *testing.T) {
	m := NewMemory()
	clock := base
	m.now = func() time.Time { return clock }

	allowN(t, m, 1, CommandCreateNation, 1)
	retry := expectLimited(t, m, 1, CommandCreateNation)
	if !near(retry, 24*time.Hour) {
		t.Errorf("retry after = %v, want 24h", retry)
	}

	err := m.Check(context.Background(), 1, CommandCreateNation)
	want := "You're using this command too frequently. Please wait 1440 minutes before trying again."
	if errors.UserMessage(err) != want {
		t.Errorf("user message = %q", errors.UserMessage(err))
	}

	clock = clock.Add(24*time.Hour + time.Minute)
	allowN(t, m, 1, CommandCreateNation, 1)
}

func TestMemoryUnknownCommandsShareDefault(t *testing.T) {
	m := NewMemory()
	m.now = func() time.Time { return base }

	allowN(t, m, 1, "status", 20)
	allowN(t, m, 1, "rankings", 10)
	expectLimited(t, m, 1, CommandDefault)
}

func TestMemoryPrune(t *testing.T) {
	m := NewMemory()
	clock := base
	m.now = func() time.Time { return clock }

	allowN(t, m, 1, CommandAttack, 1)
	allowN(t, m, 2, CommandDefault, 1)
	if n := m.Prune(); n != 0 {
		t.Fatalf("pruned %d busy buckets", n)
	}

	clock = clock.Add(time.Hour)
	if n := m.Prune(); n != 2 {
		t.Errorf("pruned %d idle buckets, want 2", n)
	}
}

func newRedisLimiter(t *testing.T) (*Redis, *miniredis.Miniredis, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := base
	r := NewRedis(client)
	r.now = func() time.Time { return clock }
	return r, mr, &clock
}

func TestRedisFixedWindow(t *testing.T) {
	r, mr, clock := newRedisLimiter(t)

	allowN(t, r, 1, CommandAttack, 5)
	retry := expectLimited(t, r, 1, CommandAttack)
	if retry != 30*time.Minute {
		t.Errorf("retry after = %v, want the 30m left in the window", retry)
	}
	allowN(t, r, 2, CommandAttack, 5)

	if ttl := mr.TTL(fmt.Sprintf("ratelimit:attack:1:%d", base.UnixMilli()/time.Hour.Milliseconds())); ttl != time.Hour {
		t.Errorf("window key ttl = %v, want 1h", ttl)
	}

	*clock = clock.Add(30 * time.Minute)
	allowN(t, r, 1, CommandAttack, 5)
}

func TestRedisUnavailableIsStoreError(t *testing.T) {
	r, mr, _ := newRedisLimiter(t)
	mr.Close()

	err := r.Check(context.Background(), 1, CommandBuild)
	if errors.GetType(err) != errors.ErrorTypeStore {
		t.Errorf("expected store error, got %v", err)
	}
}

func TestNewSelectsImplementation(t *testing.T) {
	if _, ok := New(config.RateLimitConfig{Enabled: false}, nil).(Disabled); !ok {
		t.Error("disabled config should not limit")
	}
	if _, ok := New(config.RateLimitConfig{Enabled: true}, nil).(*Memory); !ok {
		t.Error("missing redis should fall back to memory")
	}

	mr := miniredis.RunT(t)
	client, err := redis.Connect(config.RedisConfig{Enabled: true, URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()
	if _, ok := New(config.RateLimitConfig{Enabled: true}, client).(*Redis); !ok {
		t.Error("connected redis should back the limiter")
	}
}
