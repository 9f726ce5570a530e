package model

import "time"

type SearchKind string

const (
	SearchAll   SearchKind = "all"
	SearchIdeas SearchKind = "ideas"
	SearchTasks SearchKind = "tasks"
	SearchFiles SearchKind = "files"
)

// SearchHit 跨实体搜索结果
type SearchHit struct {
	Kind      string    `json:"kind"` // idea | task | file
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Snippet   string    `json:"snippet"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Dashboard struct {
	TotalUsers     int64   `json:"total_users"`
	ActiveUsers    int64   `json:"active_users"`
	TotalIdeas     int64   `json:"total_ideas"`
	OpenIdeas      int64   `json:"open_ideas"`
	TotalTasks     int64   `json:"total_tasks"`
	CompletedTasks int64   `json:"completed_tasks"`
	OverdueTasks   int64   `json:"overdue_tasks"`
	CompletionRate float64 `json:"completion_rate"`
}
