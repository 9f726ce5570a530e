package cli

import (
	"context"
	"log/slog"

	"TeamPulse/internal/config"
	"TeamPulse/internal/repository/rdb"
	"TeamPulse/internal/repository/redis"
	"TeamPulse/internal/service"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// app 一次命令执行所需的连接与引擎
type app struct {
	cfg    config.Config
	db     *gorm.DB
	rdb    *goredis.Client
	engine *service.Engine
}

func newApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(opts, cmd)
	if err != nil {
		return nil, err
	}
	db, err := rdb.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, db: db}

	engineOpts := service.Options{
		Location:     cfg.Location(),
		AdminUserIDs: cfg.AdminUserIDs,
	}
	if cfg.Redis.Enabled() {
		client, err := redis.NewClient(cfg.Redis)
		if err != nil {
			_ = rdb.Close(db)
			return nil, err
		}
		a.rdb = client
		engineOpts.Lock = redis.NewDistLock(client)
		engineOpts.Leaderboard = redis.NewLeaderboardCache(client)
	}
	a.engine = service.NewEngine(db, engineOpts)
	slog.Debug("store opened", "driver", cfg.Database.Driver, "redis", cfg.Redis.Enabled())
	return a, nil
}

// migrate 每个会写库的命令先建表
func (a *app) migrate(ctx context.Context) error {
	return rdb.Migrate(ctx, a.db)
}

func (a *app) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			slog.Warn("redis close failed", "err", err)
		}
	}
	if err := rdb.Close(a.db); err != nil {
		slog.Warn("db close failed", "err", err)
	}
}
