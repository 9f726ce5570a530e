package rdb

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"TeamPulse/internal/model"
	"TeamPulse/internal/pkg"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

// EnsureUser 首次出现才插入；已存在时不覆盖用户名，created=false
func (r *UserRepository) EnsureUser(ctx context.Context, id int64, username string, now time.Time) (bool, error) {
	u := model.User{
		ID:         id,
		Username:   username,
		Role:       model.RoleMember,
		LastActive: now.UTC(),
		JoinedAt:   now.UTC(),
	}
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&u)
	if res.Error != nil {
		return false, Classify("user.ensure", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// TouchActivity 无条件刷新最后活跃时间
func (r *UserRepository) TouchActivity(ctx context.Context, id int64, now time.Time) error {
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn("last_active", now.UTC()).Error
	return Classify("user.touch", err)
}

// AdjustKarma 单条 UPDATE 累加，不做下限截断；用户不存在不报错
func (r *UserRepository) AdjustKarma(ctx context.Context, id int64, delta int64) error {
	_, err := r.adjustKarma(ctx, id, delta)
	return err
}

func (r *UserRepository) adjustKarma(ctx context.Context, id int64, delta int64) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn("karma", gorm.Expr("karma + ?", delta))
	if res.Error != nil {
		return 0, Classify("user.karma", res.Error)
	}
	return res.RowsAffected, nil
}

// GetRole 查不到用户时视为 member
func (r *UserRepository) GetRole(ctx context.Context, id int64) (model.Role, error) {
	var u model.User
	err := r.DB.WithContext(ctx).Select("id", "role").Where("id = ?", id).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.RoleMember, nil
	}
	if err != nil {
		return model.RoleMember, Classify("user.role", err)
	}
	if u.Role == "" {
		return model.RoleMember, nil
	}
	return u.Role, nil
}

func (r *UserRepository) SetRole(ctx context.Context, id int64, role model.Role) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").Where("id = ?", id).Take(&model.User{}).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).Where("id = ?", id).UpdateColumn("role", role).Error
	})
	return Classify("user.set_role", err)
}

func (r *UserRepository) AcceptRules(ctx context.Context, id int64) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").Where("id = ?", id).Take(&model.User{}).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).Where("id = ?", id).UpdateColumn("accepted_rules", true).Error
	})
	return Classify("user.accept_rules", err)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, Classify("user.find", err)
	}
	return &u, nil
}

// FindByUsername 忽略大小写和前导 @
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	name := strings.TrimPrefix(strings.TrimSpace(username), "@")
	if name == "" {
		return nil, pkg.E(pkg.CodeNotFound, "user.find_by_name", nil)
	}
	var u model.User
	err := r.DB.WithContext(ctx).
		Where("LOWER(username) = LOWER(?)", name).
		Order("id ASC").
		Take(&u).Error
	if err != nil {
		return nil, Classify("user.find_by_name", err)
	}
	return &u, nil
}

// ResolveRef 解析任务指派引用：纯数字按 id，"@name" 或 name 按用户名。
// 找不到时返回 nil 和原始显示名。
func (r *UserRepository) ResolveRef(ctx context.Context, ref string) (*int64, string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, "", nil
	}
	var (
		u   *model.User
		err error
	)
	if id, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil {
		u, err = r.FindByID(ctx, id)
	} else {
		u, err = r.FindByUsername(ctx, ref)
	}
	if pkg.IsNotFound(err) {
		return nil, strings.TrimPrefix(ref, "@"), nil
	}
	if err != nil {
		return nil, "", err
	}
	name := u.Username
	if name == "" {
		name = strings.TrimPrefix(ref, "@")
	}
	return &u.ID, name, nil
}

// TopByKarma 积分排行
func (r *UserRepository) TopByKarma(ctx context.Context, limit int) ([]model.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var list []model.User
	err := r.DB.WithContext(ctx).
		Order("karma DESC").Order("id ASC").
		Limit(limit).
		Find(&list).Error
	return list, Classify("user.top", err)
}

func (r *UserRepository) Karma(ctx context.Context, id int64) (int64, error) {
	var u model.User
	if err := r.DB.WithContext(ctx).Select("id", "karma").Where("id = ?", id).Take(&u).Error; err != nil {
		return 0, Classify("user.karma_get", err)
	}
	return u.Karma, nil
}
