package model

import "time"

// Standup 每人每天一条，重复提交覆盖内容
type Standup struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	UserID      int64     `gorm:"not null;uniqueIndex:uk_standup_user_date" json:"user_id"`
	Date        string    `gorm:"size:10;not null;uniqueIndex:uk_standup_user_date;index" json:"date"`
	Yesterday   string    `gorm:"type:text" json:"yesterday"`
	Today       string    `gorm:"type:text" json:"today"`
	Blocker     string    `gorm:"type:text" json:"blocker"`
	SubmittedAt time.Time `gorm:"not null" json:"submitted_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Standup) TableName() string { return "standups" }
