package model

import "time"

type TaskStatus string

const (
	TaskToDo       TaskStatus = "ToDo"
	TaskInProgress TaskStatus = "InProgress"
	TaskDone       TaskStatus = "Done"
	TaskOverdue    TaskStatus = "Overdue"
)

// DateLayout 截止日期和站会日期统一用 YYYY-MM-DD
const DateLayout = "2006-01-02"

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskToDo, TaskInProgress, TaskDone, TaskOverdue:
		return true
	}
	return false
}

// CanMoveTo 状态机是否允许 s -> to；同状态由调用方按无变化处理
func (s TaskStatus) CanMoveTo(to TaskStatus) bool {
	switch to {
	case TaskInProgress:
		return s == TaskToDo
	case TaskDone:
		return s == TaskToDo || s == TaskInProgress || s == TaskOverdue
	case TaskOverdue:
		return s == TaskToDo || s == TaskInProgress
	}
	return false
}

type Task struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	Title         string     `gorm:"size:200;not null" json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	AssigneeID    *int64     `gorm:"index" json:"assignee_id,omitempty"`
	AssigneeName  string     `gorm:"size:64;not null;default:''" json:"assignee_name"`
	Deadline      *string    `gorm:"size:10;index" json:"deadline,omitempty"`
	Status        TaskStatus `gorm:"size:16;not null;default:ToDo;index" json:"status"`
	CreatorID     *int64     `gorm:"index" json:"creator_id,omitempty"`
	RelatedIdeaID *int64     `gorm:"index" json:"related_idea_id,omitempty"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`

	Assignee    *User `gorm:"foreignKey:AssigneeID;constraint:OnDelete:SET NULL" json:"-"`
	Creator     *User `gorm:"foreignKey:CreatorID;constraint:OnDelete:SET NULL" json:"-"`
	RelatedIdea *Idea `gorm:"foreignKey:RelatedIdeaID;constraint:OnDelete:SET NULL" json:"-"`
}

func (Task) TableName() string { return "tasks" }
