package rdb

import (
	"context"

	"TeamPulse/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StandupRepository struct {
	DB *gorm.DB
}

// Submit 按 (user_id, date) 覆盖写入，每次提交都记积分。
// created 表示当天此前没有记录；blocker 为真时写 outbox 事件。
func (r *StandupRepository) Submit(ctx context.Context, s *model.Standup, blocker bool) (bool, error) {
	var created bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Standup{}).
			Where("user_id = ? AND date = ?", s.UserID, s.Date).
			Count(&n).Error; err != nil {
			return err
		}
		created = n == 0

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"yesterday", "today", "blocker", "submitted_at"}),
		}).Create(s).Error; err != nil {
			return err
		}
		// 冲突更新时部分驱动拿不到 id，回查一次
		var id int64
		if err := tx.Model(&model.Standup{}).Select("id").
			Where("user_id = ? AND date = ?", s.UserID, s.Date).
			Scan(&id).Error; err != nil {
			return err
		}
		s.ID = id

		ledger := &LedgerRepository{DB: tx}
		if err := ledger.Apply(ctx, s.UserID, model.EventStandupSubmitted, s.ID); err != nil {
			return err
		}
		if !blocker {
			return nil
		}
		return insertOutbox(tx, model.EventTypeStandupBlocker, s.ID, map[string]any{
			"user_id": s.UserID,
			"date":    s.Date,
			"blocker": s.Blocker,
		})
	})
	return created, Classify("standup.submit", err)
}

// UsersMissing 非 inactive 且 since 之后没有站会记录的用户
func (r *StandupRepository) UsersMissing(ctx context.Context, since string) ([]model.User, error) {
	var list []model.User
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("role <> ?", model.RoleInactive).
		Where("NOT EXISTS (SELECT 1 FROM standups s WHERE s.user_id = users.id AND s.date >= ?)", since).
		Order("id ASC").
		Find(&list).Error
	return list, Classify("standup.missing", err)
}

// ListByDate 某天的全部站会
func (r *StandupRepository) ListByDate(ctx context.Context, date string) ([]model.Standup, error) {
	var list []model.Standup
	err := r.DB.WithContext(ctx).
		Where("date = ?", date).
		Order("submitted_at ASC").
		Find(&list).Error
	return list, Classify("standup.list", err)
}

func (r *StandupRepository) Find(ctx context.Context, userID int64, date string) (*model.Standup, error) {
	var s model.Standup
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Take(&s).Error; err != nil {
		return nil, Classify("standup.find", err)
	}
	return &s, nil
}
