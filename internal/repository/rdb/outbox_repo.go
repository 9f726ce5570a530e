package rdb

import (
	"context"
	"encoding/json"
	"time"

	"TeamPulse/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OutboxRepository struct {
	DB *gorm.DB
}

// insertOutbox 必须在业务事务内调用
func insertOutbox(tx *gorm.DB, eventType string, aggregateID int64, fields map[string]any) error {
	body := map[string]any{
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range fields {
		body[k] = v
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	ob := &model.OutboxEvent{
		EventID:     uuid.NewString(),
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     datatypes.JSON(payload),
		Status:      model.OutboxPending,
	}
	return tx.Create(ob).Error
}

// Enqueue 单独写一条事件（不依附业务写入时使用）
func (r *OutboxRepository) Enqueue(ctx context.Context, eventType string, aggregateID int64, fields map[string]any) error {
	return Classify("outbox.enqueue", insertOutbox(r.DB.WithContext(ctx), eventType, aggregateID, fields))
}

// List 待投递事件：未发送的，以及重试次数未超限的失败事件
func (r *OutboxRepository) List(ctx context.Context, batchSize, maxRetry int) ([]model.OutboxEvent, error) {
	var list []model.OutboxEvent
	err := r.DB.WithContext(ctx).
		Where("status = ? OR (status = ? AND retry < ?)", model.OutboxPending, model.OutboxFailed, maxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error
	return list, Classify("outbox.list", err)
}

// RetryUpdate 投递失败，记一次重试
func (r *OutboxRepository) RetryUpdate(ctx context.Context, id int64) error {
	err := r.DB.WithContext(ctx).Model(&model.OutboxEvent{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
	return Classify("outbox.retry", err)
}

// SuccessUpdate 投递成功
func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id int64) error {
	err := r.DB.WithContext(ctx).Model(&model.OutboxEvent{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
	return Classify("outbox.success", err)
}

// CountByStatus 运维统计
func (r *OutboxRepository) CountByStatus(ctx context.Context, status int8) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.OutboxEvent{}).Where("status = ?", status).Count(&n).Error
	return n, Classify("outbox.count", err)
}
