package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"TeamPulse/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	LeaderboardKey  = "karma:top"
	LeaderboardGen  = "karma:top:gen"
	LeaderboardTTL  = 5 * time.Minute
	LeaderboardSize = 50
)

// LeaderboardCache 缓存积分榜前 LeaderboardSize 名；写库后删 key 并递增代数，
// 读侧回填前比对代数，回源期间发生过失效则放弃回填
type LeaderboardCache struct {
	RDB *redis.Client
	ttl time.Duration
}

func NewLeaderboardCache(rdb *redis.Client) *LeaderboardCache {
	return &LeaderboardCache{RDB: rdb, ttl: LeaderboardTTL}
}

// Get 命中返回 ok=true；未配置 redis 时总是未命中
func (c *LeaderboardCache) Get(ctx context.Context) ([]model.User, bool, error) {
	if c == nil || c.RDB == nil {
		return nil, false, nil
	}
	raw, err := c.RDB.Get(ctx, LeaderboardKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var list []model.User
	if err := json.Unmarshal(raw, &list); err != nil {
		// 缓存内容损坏，删掉交给回源
		_ = c.RDB.Del(ctx, LeaderboardKey).Err()
		return nil, false, nil
	}
	return list, true, nil
}

// Version 回源前读取当前代数，交给 Set 比对
func (c *LeaderboardCache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.RDB == nil {
		return 0, nil
	}
	v, err := c.RDB.Get(ctx, LeaderboardGen).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Set 回填；version 已过期时不写入，返回 false
func (c *LeaderboardCache) Set(ctx context.Context, list []model.User, version int64) (bool, error) {
	if c == nil || c.RDB == nil {
		return false, nil
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return false, err
	}
	stored := false
	err = c.RDB.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, LeaderboardGen).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, LeaderboardKey, raw, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, LeaderboardGen)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

// Invalidate 积分变化后调用
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	if c == nil || c.RDB == nil {
		return nil
	}
	_, err := c.RDB.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, LeaderboardGen)
		pipe.Del(ctx, LeaderboardKey)
		return nil
	})
	return err
}
