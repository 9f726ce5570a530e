package rdb

import (
	"context"

	"TeamPulse/internal/model"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	DB *gorm.DB
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return Classify("notification.create", r.DB.WithContext(ctx).Create(n).Error)
}

// CreateBatch 批量写入，用于提醒类通知
func (r *NotificationRepository) CreateBatch(ctx context.Context, list []model.Notification) error {
	if len(list) == 0 {
		return nil
	}
	return Classify("notification.create_batch", r.DB.WithContext(ctx).Create(&list).Error)
}

func (r *NotificationRepository) Unread(ctx context.Context, userID int64) ([]model.Notification, error) {
	var list []model.Notification
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("id DESC").
		Find(&list).Error
	return list, Classify("notification.unread", err)
}

// MarkRead 只能标记自己的通知
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", id, userID, false).
		UpdateColumn("is_read", true)
	if res.Error != nil {
		return false, Classify("notification.mark_read", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// CreateWithEvents 通知与 outbox 事件同一事务写入
func (r *NotificationRepository) CreateWithEvents(ctx context.Context, list []model.Notification, eventType string) error {
	if len(list) == 0 {
		return nil
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&list).Error; err != nil {
			return err
		}
		for _, n := range list {
			if err := insertOutbox(tx, eventType, n.UserID, map[string]any{
				"user_id":         n.UserID,
				"notification_id": n.ID,
				"message":         n.Message,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return Classify("notification.create_with_events", err)
}
