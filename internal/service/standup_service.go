package service

import (
	"context"
	"log/slog"
	"strings"

	"TeamPulse/internal/model"
	"TeamPulse/internal/pkg"
	"TeamPulse/internal/repository/rdb"
	"TeamPulse/internal/repository/redis"

	"gorm.io/gorm"
)

// 视为"没有阻碍"的填写
var noBlocker = map[string]struct{}{
	"": {}, "-": {}, "no": {}, "none": {}, "n/a": {}, "nothing": {},
}

type StandupService struct {
	repo  *rdb.StandupRepository
	board *redis.LeaderboardCache
	clock Clock
}

func NewStandupService(db *gorm.DB, clk Clock, board *redis.LeaderboardCache) *StandupService {
	return &StandupService{
		repo:  &rdb.StandupRepository{DB: db},
		board: board,
		clock: clk,
	}
}

// SubmitStandup 同一天重复提交覆盖内容，每次都 +5 积分
func (s *StandupService) SubmitStandup(ctx context.Context, userID int64, date, yesterday, today, blocker string) (bool, error) {
	if userID == 0 {
		return false, pkg.Errorf(pkg.CodeInvalidArgument, "standup.submit", "invalid user id")
	}
	day, err := ParseDate("standup.submit", date)
	if err != nil {
		return false, err
	}
	if day == nil {
		t := s.clock.Today()
		day = &t
	}
	st := &model.Standup{
		UserID:      userID,
		Date:        *day,
		Yesterday:   strings.TrimSpace(yesterday),
		Today:       strings.TrimSpace(today),
		Blocker:     strings.TrimSpace(blocker),
		SubmittedAt: s.clock.Now().UTC(),
	}
	created, err := s.repo.Submit(ctx, st, HasBlocker(st.Blocker))
	if err != nil {
		return false, err
	}
	invalidateBoard(ctx, s.board)
	slog.Info("standup submitted", "user_id", userID, "date", st.Date, "created", created)
	return created, nil
}

// SubmitToday 日期取引擎时钟的今天
func (s *StandupService) SubmitToday(ctx context.Context, userID int64, yesterday, today, blocker string) (bool, error) {
	return s.SubmitStandup(ctx, userID, s.clock.Today(), yesterday, today, blocker)
}

// UsersMissing sinceDays=0 表示今天还没交的人
func (s *StandupService) UsersMissing(ctx context.Context, sinceDays int) ([]model.User, error) {
	if sinceDays < 0 {
		return nil, pkg.Errorf(pkg.CodeInvalidArgument, "standup.missing", "sinceDays must not be negative")
	}
	return s.repo.UsersMissing(ctx, s.clock.DaysAgo(sinceDays))
}

func (s *StandupService) StandupsOn(ctx context.Context, date string) ([]model.Standup, error) {
	day, err := ParseDate("standup.list", date)
	if err != nil {
		return nil, err
	}
	if day == nil {
		t := s.clock.Today()
		day = &t
	}
	return s.repo.ListByDate(ctx, *day)
}

// HasBlocker 过滤 "-"、"none" 之类的占位内容
func HasBlocker(b string) bool {
	_, empty := noBlocker[strings.ToLower(strings.TrimSpace(b))]
	return !empty
}
