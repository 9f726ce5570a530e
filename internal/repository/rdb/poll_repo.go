package rdb

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"TeamPulse/internal/model"
	"TeamPulse/internal/pkg"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PollRepository struct {
	DB *gorm.DB
}

// Create 选项在创建时固定，投票表初始化为空对象
func (r *PollRepository) Create(ctx context.Context, title string, options []string, creatorID int64) (*model.Poll, error) {
	raw, err := json.Marshal(options)
	if err != nil {
		return nil, pkg.E(pkg.CodeInvalidArgument, "poll.create", err)
	}
	p := &model.Poll{
		Title:     title,
		Options:   datatypes.JSON(raw),
		Ballots:   datatypes.JSON("{}"),
		CreatedBy: creatorID,
	}
	if err := r.DB.WithContext(ctx).Create(p).Error; err != nil {
		return nil, Classify("poll.create", err)
	}
	return p, nil
}

// Vote 读-改-写投票表，整段在一个事务里并锁住该行。每个投票人只保留最后一次选择。
func (r *PollRepository) Vote(ctx context.Context, pollID, voterID int64, optionIndex int) (bool, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Poll
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", pollID).Take(&p).Error; err != nil {
			return err
		}
		options := DecodeOptions(p.ID, p.Options)
		if optionIndex < 0 || optionIndex >= len(options) {
			return pkg.Errorf(pkg.CodeInvalidArgument, "poll.vote", "option %d out of range [0,%d)", optionIndex, len(options))
		}
		ballots := DecodeBallots(p.ID, p.Ballots)
		ballots[voterID] = optionIndex
		raw, err := EncodeBallots(ballots)
		if err != nil {
			return err
		}
		return tx.Model(&model.Poll{}).Where("id = ?", pollID).
			UpdateColumn("ballots", datatypes.JSON(raw)).Error
	})
	if err != nil {
		return false, Classify("poll.vote", err)
	}
	return true, nil
}

// Find 返回投票和创建者用户名
func (r *PollRepository) Find(ctx context.Context, pollID int64) (*model.Poll, string, error) {
	var p model.Poll
	if err := r.DB.WithContext(ctx).Where("id = ?", pollID).Take(&p).Error; err != nil {
		return nil, "", Classify("poll.find", err)
	}
	var name string
	if err := r.DB.WithContext(ctx).Model(&model.User{}).
		Select("username").Where("id = ?", p.CreatedBy).
		Scan(&name).Error; err != nil {
		return nil, "", Classify("poll.find", err)
	}
	return &p, name, nil
}

// DecodeOptions 解析失败时记日志并返回空
func DecodeOptions(pollID int64, raw datatypes.JSON) []string {
	var options []string
	if len(raw) == 0 {
		return options
	}
	if err := json.Unmarshal(raw, &options); err != nil {
		slog.Warn("malformed poll options", "poll_id", pollID, "err", err)
		return []string{}
	}
	return options
}

// DecodeBallots 兼容 "123" 与 "user_123" 两种 key；解析失败时记日志并返回空
func DecodeBallots(pollID int64, raw datatypes.JSON) map[int64]int {
	ballots := map[int64]int{}
	if len(raw) == 0 {
		return ballots
	}
	var stored map[string]int
	if err := json.Unmarshal(raw, &stored); err != nil {
		slog.Warn("malformed poll ballots", "poll_id", pollID, "err", err)
		return ballots
	}
	// 先放 "user_" 旧 key，同一投票人两种 key 都在时以新 key 为准
	for _, legacy := range []bool{true, false} {
		for k, v := range stored {
			if strings.HasPrefix(k, "user_") != legacy {
				continue
			}
			id, err := strconv.ParseInt(strings.TrimPrefix(k, "user_"), 10, 64)
			if err != nil {
				slog.Warn("skip malformed ballot key", "poll_id", pollID, "key", k)
				continue
			}
			ballots[id] = v
		}
	}
	return ballots
}

func EncodeBallots(ballots map[int64]int) ([]byte, error) {
	return json.Marshal(ballots)
}
