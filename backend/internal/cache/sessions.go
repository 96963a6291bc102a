package cache

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// SessionCache 在线会话登记，多个 authority 实例共享同一份计数
type SessionCache interface {
	Touch(ctx context.Context, sessionID string, ttl time.Duration) error
	Remove(ctx context.Context, sessionID string) error
	Count(ctx context.Context) (int64, error)
}

// 具体实现：基于 redis 的 SessionCache
type redisSessions struct {
	rdb redis.UniversalClient
}

func NewRedisSessions(rdb redis.UniversalClient) SessionCache {
	return &redisSessions{rdb: rdb}
}

// 先清理过期成员，再返回剩余数量
// KEYS[1] = sessionsKey()
// ARGV[1] = now (unix seconds)
var countAlive = redis.NewScript(`
	redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
	return redis.call("ZCARD", KEYS[1])
`)

func (p *redisSessions) Touch(ctx context.Context, sessionID string, ttl time.Duration) error {
	// 刷新TTL也直接调用Touch即可；score 使用 expireAt（Unix 秒），表达“逻辑 TTL”
	expireAt := time.Now().Add(ttl).Unix()
	return p.rdb.ZAdd(ctx, sessionsKey(), redis.Z{Score: float64(expireAt), Member: sessionID}).Err()
}

func (p *redisSessions) Remove(ctx context.Context, sessionID string) error {
	return p.rdb.ZRem(ctx, sessionsKey(), sessionID).Err()
}

func (p *redisSessions) Count(ctx context.Context) (int64, error) {
	n, err := countAlive.Run(ctx, p.rdb, []string{sessionsKey()}, time.Now().Unix()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}
	return n, nil
}
