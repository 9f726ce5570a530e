package rdb

import (
	"context"
	"strings"

	"TeamPulse/internal/model"

	"gorm.io/gorm"
)

type FileRepository struct {
	DB *gorm.DB
}

func (r *FileRepository) Save(ctx context.Context, f *model.File) error {
	return Classify("file.save", r.DB.WithContext(ctx).Create(f).Error)
}

func (r *FileRepository) FindByID(ctx context.Context, id int64) (*model.File, error) {
	var f model.File
	if err := r.DB.WithContext(ctx).Where("id = ?", id).Take(&f).Error; err != nil {
		return nil, Classify("file.find", err)
	}
	return &f, nil
}

// ByTag 标签子串匹配，忽略大小写
func (r *FileRepository) ByTag(ctx context.Context, tag string, limit int) ([]model.File, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var list []model.File
	err := r.DB.WithContext(ctx).
		Where("LOWER(tags) LIKE ?", likePattern(tag)).
		Order("uploaded_at DESC").Order("id DESC").
		Limit(limit).
		Find(&list).Error
	return list, Classify("file.by_tag", err)
}

// likePattern 构造 %q% 模式，不做转义：% 和 _ 按通配处理
func likePattern(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}
