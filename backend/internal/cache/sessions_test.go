package cache

import (
	"context"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
)

func TestRedisSessions(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	ctx := context.Background()
	// 若 Redis 未启动则跳过
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("skip: redis not available: %v", err)
	}
	defer rdb.Close()
	rdb.Del(ctx, sessionsKey())
	defer rdb.Del(ctx, sessionsKey())

	c := NewRedisSessions(rdb)
	if err := c.Touch(ctx, "alive", time.Minute); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	// 已过期的会话：score 落在过去
	if err := c.Touch(ctx, "stale", -time.Minute); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	n, err := c.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("Count() = %d, want 1", n)
	}

	if err := c.Remove(ctx, "alive"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if n, _ = c.Count(ctx); n != 0 {
		t.Fatalf("Count() after Remove = %d, want 0", n)
	}
}
