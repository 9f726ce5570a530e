package model

import "time"

const (
	NotifyTaskAssigned = "task_assigned"
	NotifyTaskOverdue  = "task_overdue"
	NotifyStandup      = "standup_reminder"
)

type Notification struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index:idx_notification_user_read" json:"user_id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Type      string    `gorm:"size:32;not null;default:info" json:"type"`
	IsRead    bool      `gorm:"not null;default:false;index:idx_notification_user_read" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Notification) TableName() string { return "notifications" }
