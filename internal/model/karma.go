package model

import "time"

// LedgerEvent 积分变动只能由这些事件触发
type LedgerEvent string

const (
	EventIdeaCreated      LedgerEvent = "idea_created"
	EventTaskCreated      LedgerEvent = "task_created"
	EventTaskCompleted    LedgerEvent = "task_completed"
	EventStandupSubmitted LedgerEvent = "standup_submitted"
)

var ledgerDeltas = map[LedgerEvent]int64{
	EventIdeaCreated:      10,
	EventTaskCreated:      5,
	EventTaskCompleted:    30,
	EventStandupSubmitted: 5,
}

// Delta 事件对应的固定积分，未知事件 ok=false
func (e LedgerEvent) Delta() (int64, bool) {
	d, ok := ledgerDeltas[e]
	return d, ok
}

// KarmaEntry 积分流水
type KarmaEntry struct {
	ID        int64       `gorm:"primaryKey" json:"id"`
	UserID    int64       `gorm:"not null;index" json:"user_id"`
	Event     LedgerEvent `gorm:"size:32;not null" json:"event"`
	Delta     int64       `gorm:"not null" json:"delta"`
	RefID     int64       `gorm:"not null;default:0" json:"ref_id"`
	CreatedAt time.Time   `json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (KarmaEntry) TableName() string { return "karma_ledger" }
