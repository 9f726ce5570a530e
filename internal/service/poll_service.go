package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"TeamPulse/internal/model"
	"TeamPulse/internal/pkg"
	"TeamPulse/internal/repository/rdb"
	"TeamPulse/internal/repository/redis"

	"gorm.io/gorm"
)

const (
	minPollOptions = 2
	maxPollOptions = 10
	lockAttempts   = 20
	lockBackoff    = 50 * time.Millisecond
)

type PollService struct {
	repo *rdb.PollRepository
	lock *redis.DistLock
}

func NewPollService(db *gorm.DB, lock *redis.DistLock) *PollService {
	return &PollService{
		repo: &rdb.PollRepository{DB: db},
		lock: lock,
	}
}

// CreatePoll 至少两个非空选项
func (s *PollService) CreatePoll(ctx context.Context, title string, options []string, creatorID int64) (int64, error) {
	title, err := cleanTitle("poll.create", title)
	if err != nil {
		return 0, err
	}
	cleaned := make([]string, 0, len(options))
	for _, o := range options {
		if o = strings.TrimSpace(o); o != "" {
			cleaned = append(cleaned, o)
		}
	}
	if len(cleaned) < minPollOptions || len(cleaned) > maxPollOptions {
		return 0, pkg.Errorf(pkg.CodeInvalidArgument, "poll.create", "need %d-%d options, got %d", minPollOptions, maxPollOptions, len(cleaned))
	}
	p, err := s.repo.Create(ctx, title, cleaned, creatorID)
	if err != nil {
		return 0, err
	}
	slog.Info("poll created", "poll_id", p.ID, "options", len(cleaned))
	return p.ID, nil
}

// Vote 先拿分布式锁再进事务；锁等待超时按存储不可用返回，调用方可重试
func (s *PollService) Vote(ctx context.Context, pollID, voterID int64, optionIndex int) (bool, error) {
	token := redis.NewToken()
	got, err := s.lock.AcquireWait(ctx, pollID, token, lockAttempts, lockBackoff)
	if err != nil {
		return false, pkg.E(pkg.CodeUnavailable, "poll.vote", err)
	}
	if !got {
		return false, pkg.Errorf(pkg.CodeUnavailable, "poll.vote", "poll %d is busy", pollID)
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), pollID, token); err != nil {
			slog.Warn("poll lock release failed", "poll_id", pollID, "err", err)
		}
	}()

	ok, err := s.repo.Vote(ctx, pollID, voterID, optionIndex)
	if err != nil {
		return false, err
	}
	slog.Info("poll voted", "poll_id", pollID, "voter_id", voterID, "option", optionIndex)
	return ok, nil
}

// Results 解码选项和投票，并按选项计数
func (s *PollService) Results(ctx context.Context, pollID int64) (*model.PollResult, error) {
	p, creator, err := s.repo.Find(ctx, pollID)
	if err != nil {
		return nil, err
	}
	options := rdb.DecodeOptions(p.ID, p.Options)
	ballots := rdb.DecodeBallots(p.ID, p.Ballots)
	tally := make([]int, len(options))
	for _, idx := range ballots {
		if idx >= 0 && idx < len(tally) {
			tally[idx]++
		}
	}
	return &model.PollResult{
		ID:          p.ID,
		Title:       p.Title,
		Options:     options,
		Ballots:     ballots,
		Tally:       tally,
		CreatedBy:   p.CreatedBy,
		CreatorName: creator,
		CreatedAt:   p.CreatedAt,
	}, nil
}
