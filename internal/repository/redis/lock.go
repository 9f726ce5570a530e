package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	LockTTL       = 3 * time.Second
	LockKeyPrefix = "lock:poll"
)

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

// DistLock 跨进程互斥；RDB 为 nil 时退化为总是加锁成功
type DistLock struct {
	RDB    *redis.Client
	TTL    time.Duration
	Prefix string
}

func NewDistLock(rdb *redis.Client) *DistLock {
	return &DistLock{RDB: rdb, TTL: LockTTL, Prefix: LockKeyPrefix}
}

func (l *DistLock) key(id int64) string {
	prefix := l.Prefix
	if prefix == "" {
		prefix = LockKeyPrefix
	}
	return fmt.Sprintf("%s:%d", prefix, id)
}

// NewToken 每次加锁使用唯一 token，防止误删别人的锁
func NewToken() string { return uuid.NewString() }

// Acquire 请求加分布式锁
func (l *DistLock) Acquire(ctx context.Context, id int64, token string) (bool, error) {
	if l == nil || l.RDB == nil {
		return true, nil
	}
	ttl := l.TTL
	if ttl <= 0 {
		ttl = LockTTL
	}
	return l.RDB.SetNX(ctx, l.key(id), token, ttl).Result()
}

// AcquireWait 拿不到锁时退避重试，最多 attempts 次
func (l *DistLock) AcquireWait(ctx context.Context, id int64, token string, attempts int, backoff time.Duration) (bool, error) {
	for i := 0; i < attempts; i++ {
		got, err := l.Acquire(ctx, id, token)
		if err != nil || got {
			return got, err
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return false, nil
}

// Release 用lua保证原子性
func (l *DistLock) Release(ctx context.Context, id int64, token string) error {
	if l == nil || l.RDB == nil {
		return nil
	}
	return releaseScript.Run(ctx, l.RDB, []string{l.key(id)}, token).Err()
}
