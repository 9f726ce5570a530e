package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

// 事件类型
const (
	EventTypeIdeaCreated     = "idea.created"
	EventTypeTaskAssigned    = "task.assigned"
	EventTypeTaskCompleted   = "task.completed"
	EventTypeTaskOverdue     = "task.overdue"
	EventTypeStandupBlocker  = "standup.blocker"
	EventTypeStandupReminder = "standup.reminder"
)

// OutboxEvent 与业务写入同一事务落库，由 relayer 异步投递
type OutboxEvent struct {
	ID          int64          `gorm:"primaryKey"`
	EventID     string         `gorm:"size:36;not null;uniqueIndex"`
	EventType   string         `gorm:"size:32;not null"`
	AggregateID int64          `gorm:"not null;index"`
	Payload     datatypes.JSON `gorm:"not null"`
	Status      int8           `gorm:"not null;default:0;index;comment:'0=pending,1=sent,2=failed'"`
	Retry       int            `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (OutboxEvent) TableName() string { return "outbox_events" }
