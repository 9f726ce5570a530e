package model

import (
	"time"

	"gorm.io/datatypes"
)

// Poll options 为 JSON 数组，ballots 为 JSON 对象 {"<voter_id>": option_index}
type Poll struct {
	ID        int64          `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"size:200;not null" json:"title"`
	Options   datatypes.JSON `gorm:"not null" json:"options"`
	Ballots   datatypes.JSON `gorm:"not null" json:"ballots"`
	CreatedBy int64          `gorm:"not null;index" json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`

	Creator *User `gorm:"foreignKey:CreatedBy;constraint:OnDelete:CASCADE" json:"-"`
}

func (Poll) TableName() string { return "polls" }

// PollResult 解码后的投票结果
type PollResult struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Options     []string      `json:"options"`
	Ballots     map[int64]int `json:"ballots"`
	Tally       []int         `json:"tally"`
	CreatedBy   int64         `json:"created_by"`
	CreatorName string        `json:"creator_name"`
	CreatedAt   time.Time     `json:"created_at"`
}
