package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"TeamPulse/internal/model"
	"TeamPulse/internal/pkg"
	"TeamPulse/internal/repository/rdb"

	"gorm.io/gorm"
)

// Sender 投递一条 outbox 事件
type Sender func(ctx context.Context, ev *model.OutboxEvent) error

// Publisher 由 pkg.KafkaProducer 实现
type Publisher interface {
	Send(ctx context.Context, key string, value []byte) error
}

// OutboxRelayer 从 outbox 表读事件异步投递
type OutboxRelayer struct {
	repo      *rdb.OutboxRepository
	batchSize int
	maxRetry  int
	interval  time.Duration
	sender    Sender
}

// Envelope 投递到消息队列的消息体
type Envelope struct {
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	AggregateID int64           `json:"aggregate_id"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
}

func NewOutboxRelayer(db *gorm.DB, sender Sender) *OutboxRelayer {
	if sender == nil {
		sender = LogSender
	}
	return &OutboxRelayer{
		repo:      &rdb.OutboxRepository{DB: db},
		batchSize: 200,
		maxRetry:  5,
		interval:  time.Second,
		sender:    sender,
	}
}

// Run outbox启动器
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.DrainOnce(ctx)
		}
	}
}

// DrainOnce 投递一批，返回成功和失败条数
func (r *OutboxRelayer) DrainOnce(ctx context.Context) (sent, failed int) {
	rows, err := r.repo.List(ctx, r.batchSize, r.maxRetry)
	if err != nil {
		slog.Error("outbox query failed", "err", err)
		return 0, 0
	}
	for i := range rows {
		ev := rows[i]
		if err := r.sender(ctx, &ev); err != nil {
			failed++
			slog.Warn("outbox send failed", "event_id", ev.EventID, "type", ev.EventType, "retry", ev.Retry, "err", err)
			if err := r.repo.RetryUpdate(ctx, ev.ID); err != nil {
				slog.Error("outbox retry update failed", "id", ev.ID, "err", err)
			}
			continue
		}
		sent++
		if err := r.repo.SuccessUpdate(ctx, ev.ID); err != nil {
			slog.Error("outbox success update failed", "id", ev.ID, "err", err)
		}
	}
	return sent, failed
}

// LogSender 未配置 kafka 时只打日志
func LogSender(_ context.Context, ev *model.OutboxEvent) error {
	slog.Info("outbox event", "event_id", ev.EventID, "type", ev.EventType, "aggregate_id", ev.AggregateID, "payload", string(ev.Payload))
	return nil
}

// KafkaSender 以聚合 id 为 key 投递
func KafkaSender(p Publisher) Sender {
	return func(ctx context.Context, ev *model.OutboxEvent) error {
		body, err := json.Marshal(Envelope{
			EventID:     ev.EventID,
			EventType:   ev.EventType,
			AggregateID: ev.AggregateID,
			Payload:     json.RawMessage(ev.Payload),
			CreatedAt:   ev.CreatedAt,
		})
		if err != nil {
			return err
		}
		return p.Send(ctx, pkg.MakeKeyFromID(ev.AggregateID), body)
	}
}
