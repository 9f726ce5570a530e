package service

import (
	"context"
	"log/slog"
	"time"

	"TeamPulse/internal/model"
	"TeamPulse/internal/repository/redis"

	"gorm.io/gorm"
)

// Options 引擎的外部依赖，零值可用
type Options struct {
	Now          func() time.Time
	Location     *time.Location
	AdminUserIDs []int64
	// 以下两个为空时不使用 redis
	Lock        *redis.DistLock
	Leaderboard *redis.LeaderboardCache
}

// Engine 所有业务操作的入口，每个操作是一次独立事务
type Engine struct {
	Users         *UserService
	Ideas         *IdeaService
	Tasks         *TaskService
	Standups      *StandupService
	Polls         *PollService
	Search        *SearchService
	Files         *FileService
	Notifications *NotificationService
}

func NewEngine(db *gorm.DB, opts Options) *Engine {
	clk := newClock(opts.Now, opts.Location)
	board := opts.Leaderboard
	return &Engine{
		Users:         NewUserService(db, clk, board, opts.AdminUserIDs),
		Ideas:         NewIdeaService(db, clk, board),
		Tasks:         NewTaskService(db, clk, board),
		Standups:      NewStandupService(db, clk, board),
		Polls:         NewPollService(db, opts.Lock),
		Search:        NewSearchService(db, clk),
		Files:         NewFileService(db, clk),
		Notifications: NewNotificationService(db),
	}
}

// Clock 统一时间来源，"今天" 按配置时区计算
type Clock struct {
	now func() time.Time
	loc *time.Location
}

func newClock(now func() time.Time, loc *time.Location) Clock {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return Clock{now: now, loc: loc}
}

func (c Clock) Now() time.Time { return c.now().In(c.loc) }

// Today YYYY-MM-DD
func (c Clock) Today() string { return c.Now().Format(model.DateLayout) }

// DaysAgo today 往前 n 天的日期
func (c Clock) DaysAgo(n int) string { return c.Now().AddDate(0, 0, -n).Format(model.DateLayout) }

// invalidateBoard 积分变动后删排行榜缓存，失败只记日志
func invalidateBoard(ctx context.Context, board *redis.LeaderboardCache) {
	if err := board.Invalidate(ctx); err != nil {
		slog.Warn("leaderboard invalidate failed", "err", err)
	}
}
