// Package scheduler 每日定时任务：逾期扫描与站会提醒
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"TeamPulse/internal/config"
	"TeamPulse/internal/model"

	"github.com/robfig/cron/v3"
)

const jobTimeout = time.Minute

type Sweeper interface {
	SweepOverdue(ctx context.Context) ([]model.Task, error)
}

type MissingFinder interface {
	UsersMissing(ctx context.Context, sinceDays int) ([]model.User, error)
}

// Notifier 接收需要提醒的用户
type Notifier interface {
	RemindStandup(ctx context.Context, users []model.User) error
}

type Scheduler struct {
	cron        *cron.Cron
	sweeper     Sweeper
	finder      MissingFinder
	notifier    Notifier
	missingDays int
}

// New 按配置时区注册两个每日任务，不会自动启动
func New(cfg config.Schedule, loc *time.Location, sweeper Sweeper, finder MissingFinder, notifier Notifier) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn))
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		sweeper:     sweeper,
		finder:      finder,
		notifier:    notifier,
		missingDays: cfg.MissingDays,
	}

	overdue, err := CronSpec(cfg.OverdueTime)
	if err != nil {
		return nil, fmt.Errorf("overdue_time: %w", err)
	}
	reminder, err := CronSpec(cfg.StandupTime)
	if err != nil {
		return nil, fmt.Errorf("standup_time: %w", err)
	}
	if _, err := s.cron.AddFunc(overdue, s.job("overdue", s.RunOverdue)); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(reminder, s.job("standup_reminder", s.RunReminder)); err != nil {
		return nil, err
	}
	return s, nil
}

// CronSpec "HH:MM" 转成每日执行的 cron 表达式
func CronSpec(clock string) (string, error) {
	h, m, err := config.ParseClock(clock)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", m, h), nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop 等待正在执行的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Entries 已注册任务，便于查看下次执行时间
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) job(name string, fn func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		start := time.Now()
		if err := fn(ctx); err != nil {
			slog.Error("scheduled job failed", "job", name, "err", err)
			return
		}
		slog.Info("scheduled job done", "job", name, "took", time.Since(start))
	}
}

// RunOverdue 把过期未完成的任务标记为 Overdue
func (s *Scheduler) RunOverdue(ctx context.Context) error {
	tasks, err := s.sweeper.SweepOverdue(ctx)
	if err != nil {
		return err
	}
	if len(tasks) > 0 {
		slog.Info("tasks marked overdue", "count", len(tasks))
	}
	return nil
}

// RunReminder 提醒还没交站会的人
func (s *Scheduler) RunReminder(ctx context.Context) error {
	users, err := s.finder.UsersMissing(ctx, s.missingDays)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return nil
	}
	return s.notifier.RemindStandup(ctx, users)
}
