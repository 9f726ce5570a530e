package rdb

import (
	"context"
	"time"

	"TeamPulse/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IdeaRepository struct {
	DB *gorm.DB
}

// VoteCountReconcilerRepo 票数提示值对账
type VoteCountReconcilerRepo struct {
	DB *gorm.DB
}

// VotePair 对账批次中的一行
type VotePair struct {
	ID    int64
	Votes int64
}

const ideaViewSelect = "i.id, i.title, i.description, i.author_id, COALESCE(u.username, '') AS author_username, " +
	"i.priority, i.status, i.created_at, " +
	"(SELECT COUNT(*) FROM idea_votes v WHERE v.idea_id = i.id) AS votes"

// Create 写想法、给作者加积分、写 outbox，同一事务
func (r *IdeaRepository) Create(ctx context.Context, idea *model.Idea) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(idea).Error; err != nil {
			return err
		}
		ledger := &LedgerRepository{DB: tx}
		if err := ledger.Apply(ctx, idea.AuthorID, model.EventIdeaCreated, idea.ID); err != nil {
			return err
		}
		return insertOutbox(tx, model.EventTypeIdeaCreated, idea.ID, map[string]any{
			"author_id": idea.AuthorID,
			"title":     idea.Title,
			"priority":  idea.Priority,
		})
	})
	return Classify("idea.create", err)
}

// Vote 一人一票。已投过返回 false；并发插入撞主键同样视为已投过
func (r *IdeaRepository) Vote(ctx context.Context, userID, ideaID int64, now time.Time) (bool, error) {
	var voted bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var idea model.Idea
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").Where("id = ?", ideaID).Take(&idea).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&model.IdeaVote{}).
			Where("user_id = ? AND idea_id = ?", userID, ideaID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		if err := tx.Create(&model.IdeaVote{UserID: userID, IdeaID: ideaID, VotedAt: now.UTC()}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Idea{}).Where("id = ?", ideaID).
			UpdateColumn("votes", gorm.Expr("votes + 1")).Error; err != nil {
			return err
		}
		voted = true
		return nil
	})
	if err != nil {
		if IsDuplicate(err) {
			return false, nil
		}
		return false, Classify("idea.vote", err)
	}
	return voted, nil
}

// HasVoted 是否投过票
func (r *IdeaRepository) HasVoted(ctx context.Context, userID, ideaID int64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.IdeaVote{}).
		Where("user_id = ? AND idea_id = ?", userID, ideaID).
		Count(&n).Error
	return n > 0, Classify("idea.has_voted", err)
}

// List 按创建时间倒序，票数由 idea_votes 统计
func (r *IdeaRepository) List(ctx context.Context, limit, offset int) ([]model.IdeaView, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	var rows []model.IdeaView
	err := r.DB.WithContext(ctx).Table("ideas AS i").
		Select(ideaViewSelect).
		Joins("LEFT JOIN users u ON u.id = i.author_id").
		Order("i.created_at DESC").Order("i.id DESC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	return rows, Classify("idea.list", err)
}

func (r *IdeaRepository) FindByID(ctx context.Context, id int64) (*model.IdeaView, error) {
	var rows []model.IdeaView
	err := r.DB.WithContext(ctx).Table("ideas AS i").
		Select(ideaViewSelect).
		Joins("LEFT JOIN users u ON u.id = i.author_id").
		Where("i.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, Classify("idea.find", err)
	}
	if len(rows) == 0 {
		return nil, Classify("idea.find", gorm.ErrRecordNotFound)
	}
	return &rows[0], nil
}

// Close 关闭想法；已关闭返回 false
func (r *IdeaRepository) Close(ctx context.Context, id int64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var idea model.Idea
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status").Where("id = ?", id).Take(&idea).Error; err != nil {
			return err
		}
		if idea.Status == model.IdeaClosed {
			return nil
		}
		changed = true
		return tx.Model(&model.Idea{}).Where("id = ?", id).UpdateColumn("status", model.IdeaClosed).Error
	})
	return changed, Classify("idea.close", err)
}

// ReconcileList 按 id 分批取票数提示值
func (r *VoteCountReconcilerRepo) ReconcileList(ctx context.Context, batchSize int, lastID int64) ([]VotePair, int64, error) {
	var list []VotePair
	if err := r.DB.WithContext(ctx).Model(&model.Idea{}).
		Select("id", "votes").
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, lastID, Classify("reconcile.list", err)
	}
	if len(list) == 0 {
		return nil, lastID, nil
	}
	return list, list[len(list)-1].ID, nil
}

// RealVotes 真实票数
func (r *VoteCountReconcilerRepo) RealVotes(ctx context.Context, ideaID int64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.IdeaVote{}).
		Where("idea_id = ?", ideaID).
		Count(&n).Error
	return n, Classify("reconcile.real", err)
}

// FixVotes 修正提示值
func (r *VoteCountReconcilerRepo) FixVotes(ctx context.Context, ideaID, votes int64) error {
	err := r.DB.WithContext(ctx).Model(&model.Idea{}).Where("id = ?", ideaID).
		UpdateColumn("votes", votes).Error
	return Classify("reconcile.fix", err)
}
