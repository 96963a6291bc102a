package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore 文档存放在一个 string key 中，APPEND 追加增量。
// 备份 key 为 <key>:backup:<unix毫秒>；key 里带 {hash tag} 时备份与原 key 落在同一个 slot，
// 集群模式下 COPY 才能成功
type RedisStore struct {
	rdb redis.UniversalClient
	key string
}

func NewRedisStore(rdb redis.UniversalClient, key string) *RedisStore {
	return &RedisStore{rdb: rdb, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (string, error) {
	v, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (s *RedisStore) Append(ctx context.Context, delta string) error {
	return s.rdb.Append(ctx, s.key, delta).Err()
}

func (s *RedisStore) Backup(ctx context.Context, at time.Time) (string, error) {
	name := backupKey(s.key, at)
	n, err := s.rdb.Copy(ctx, s.key, name, 0, true).Result()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", fmt.Errorf("copy %s: source key missing", s.key)
	}
	return name, nil
}

func backupKey(key string, at time.Time) string {
	return fmt.Sprintf("%s:backup:%d", key, at.UnixMilli())
}
