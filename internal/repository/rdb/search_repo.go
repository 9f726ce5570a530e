package rdb

import (
	"context"
	"sort"
	"time"

	"TeamPulse/internal/model"

	"gorm.io/gorm"
)

type SearchRepository struct {
	DB *gorm.DB
}

// Search 标题/描述/标签子串匹配，结果按创建时间倒序截断到 limit
func (r *SearchRepository) Search(ctx context.Context, q string, kind model.SearchKind, limit int) ([]model.SearchHit, error) {
	pattern := likePattern(q)
	var hits []model.SearchHit

	if kind == model.SearchAll || kind == model.SearchIdeas {
		var ideas []model.Idea
		if err := r.DB.WithContext(ctx).
			Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern).
			Order("created_at DESC").Limit(limit).
			Find(&ideas).Error; err != nil {
			return nil, Classify("search.ideas", err)
		}
		for _, i := range ideas {
			hits = append(hits, model.SearchHit{Kind: "idea", ID: i.ID, Title: i.Title, Snippet: snippet(i.Description), Status: string(i.Status), CreatedAt: i.CreatedAt})
		}
	}
	if kind == model.SearchAll || kind == model.SearchTasks {
		var tasks []model.Task
		if err := r.DB.WithContext(ctx).
			Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern).
			Order("created_at DESC").Limit(limit).
			Find(&tasks).Error; err != nil {
			return nil, Classify("search.tasks", err)
		}
		for _, t := range tasks {
			hits = append(hits, model.SearchHit{Kind: "task", ID: t.ID, Title: t.Title, Snippet: snippet(t.Description), Status: string(t.Status), CreatedAt: t.CreatedAt})
		}
	}
	if kind == model.SearchAll || kind == model.SearchFiles {
		var files []model.File
		if err := r.DB.WithContext(ctx).
			Where("LOWER(title) LIKE ? OR LOWER(tags) LIKE ?", pattern, pattern).
			Order("uploaded_at DESC").Limit(limit).
			Find(&files).Error; err != nil {
			return nil, Classify("search.files", err)
		}
		for _, f := range files {
			hits = append(hits, model.SearchHit{Kind: "file", ID: f.ID, Title: f.Title, Snippet: f.Tags, CreatedAt: f.UploadedAt})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].CreatedAt.After(hits[j].CreatedAt)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Dashboard 汇总计数，activeSince 之后活跃的算活跃用户
func (r *SearchRepository) Dashboard(ctx context.Context, activeSince time.Time) (*model.Dashboard, error) {
	d := &model.Dashboard{}
	db := r.DB.WithContext(ctx)
	counts := []struct {
		dst   *int64
		model any
		where string
		args  []any
	}{
		{&d.TotalUsers, &model.User{}, "", nil},
		{&d.ActiveUsers, &model.User{}, "last_active >= ?", []any{activeSince.UTC()}},
		{&d.TotalIdeas, &model.Idea{}, "", nil},
		{&d.OpenIdeas, &model.Idea{}, "status = ?", []any{model.IdeaOpen}},
		{&d.TotalTasks, &model.Task{}, "", nil},
		{&d.CompletedTasks, &model.Task{}, "status = ?", []any{model.TaskDone}},
		{&d.OverdueTasks, &model.Task{}, "status = ?", []any{model.TaskOverdue}},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, Classify("search.dashboard", err)
		}
	}
	if d.TotalTasks > 0 {
		d.CompletionRate = float64(d.CompletedTasks) / float64(d.TotalTasks)
	}
	return d, nil
}

func snippet(s string) string {
	const maxRunes = 120
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "…"
}
