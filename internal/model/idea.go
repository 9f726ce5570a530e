package model

import "time"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type IdeaStatus string

const (
	IdeaOpen   IdeaStatus = "open"
	IdeaClosed IdeaStatus = "closed"
)

// Idea 的 Votes 只是提示值，真实票数以 idea_votes 为准
type Idea struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	AuthorID    int64      `gorm:"not null;index" json:"author_id"`
	Priority    Priority   `gorm:"size:16;not null;default:medium" json:"priority"`
	Status      IdeaStatus `gorm:"size:16;not null;default:open" json:"status"`
	Votes       int64      `gorm:"not null;default:0" json:"-"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`

	Author *User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Idea) TableName() string { return "ideas" }

// IdeaVote 主键 (user_id, idea_id) 保证一人一票
type IdeaVote struct {
	UserID  int64     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	IdeaID  int64     `gorm:"primaryKey;autoIncrement:false;index" json:"idea_id"`
	VotedAt time.Time `gorm:"not null" json:"voted_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Idea *Idea `gorm:"foreignKey:IdeaID;constraint:OnDelete:CASCADE" json:"-"`
}

func (IdeaVote) TableName() string { return "idea_votes" }

// IdeaView 列表展示用，Votes 为统计出来的真实票数
type IdeaView struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	AuthorID       int64      `json:"author_id"`
	AuthorUsername string     `json:"author_username"`
	Priority       Priority   `json:"priority"`
	Status         IdeaStatus `json:"status"`
	Votes          int64      `json:"votes"`
	CreatedAt      time.Time  `json:"created_at"`
}
