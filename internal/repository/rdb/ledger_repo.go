package rdb

import (
	"context"

	"TeamPulse/internal/model"
	"TeamPulse/internal/pkg"

	"gorm.io/gorm"
)

// LedgerRepository 积分变动的唯一入口，调用方传入事务内的 DB
type LedgerRepository struct {
	DB *gorm.DB
}

// Apply 累加积分并写一条流水；用户已不存在时整体跳过
func (r *LedgerRepository) Apply(ctx context.Context, userID int64, ev model.LedgerEvent, refID int64) error {
	delta, ok := ev.Delta()
	if !ok {
		return pkg.Errorf(pkg.CodeInvalidArgument, "ledger.apply", "unknown ledger event %q", ev)
	}
	users := &UserRepository{DB: r.DB}
	n, err := users.adjustKarma(ctx, userID, delta)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	entry := &model.KarmaEntry{
		UserID: userID,
		Event:  ev,
		Delta:  delta,
		RefID:  refID,
	}
	return Classify("ledger.apply", r.DB.WithContext(ctx).Create(entry).Error)
}

// History 最近的积分流水
func (r *LedgerRepository) History(ctx context.Context, userID int64, limit int) ([]model.KarmaEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var list []model.KarmaEntry
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error
	return list, Classify("ledger.history", err)
}
