package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"TeamPulse/internal/model"
	"TeamPulse/internal/pkg"
	"TeamPulse/internal/repository/rdb"
	"TeamPulse/internal/repository/redis"

	"gorm.io/gorm"
)

type TaskService struct {
	repo  *rdb.TaskRepository
	users *rdb.UserRepository
	board *redis.LeaderboardCache
	clock Clock
}

// CreateTaskInput Assignee 可以是用户 id、"@用户名" 或用户名
type CreateTaskInput struct {
	Title         string
	Description   string
	Assignee      string
	Deadline      string // YYYY-MM-DD，可空
	CreatorID     int64
	RelatedIdeaID int64
}

func NewTaskService(db *gorm.DB, clk Clock, board *redis.LeaderboardCache) *TaskService {
	return &TaskService{
		repo:  &rdb.TaskRepository{DB: db},
		users: &rdb.UserRepository{DB: db},
		board: board,
		clock: clk,
	}
}

// CreateTask 创建者 +5 积分
func (s *TaskService) CreateTask(ctx context.Context, in CreateTaskInput) (int64, error) {
	title, err := cleanTitle("task.create", in.Title)
	if err != nil {
		return 0, err
	}
	deadline, err := ParseDate("task.create", in.Deadline)
	if err != nil {
		return 0, err
	}
	assigneeID, assigneeName, err := s.users.ResolveRef(ctx, in.Assignee)
	if err != nil {
		return 0, err
	}
	t := &model.Task{
		Title:         title,
		Description:   strings.TrimSpace(in.Description),
		AssigneeID:    assigneeID,
		AssigneeName:  assigneeName,
		Deadline:      deadline,
		Status:        model.TaskToDo,
		CreatorID:     optionalID(in.CreatorID),
		RelatedIdeaID: optionalID(in.RelatedIdeaID),
		CreatedAt:     s.clock.Now().UTC(),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return 0, err
	}
	if t.CreatorID != nil {
		invalidateBoard(ctx, s.board)
	}
	slog.Info("task created", "task_id", t.ID, "assignee", assigneeName, "resolved", assigneeID != nil)
	return t.ID, nil
}

// SetTaskStatus 同状态返回 false，Done 之后再改报非法流转；进入 Done 时指派人 +30
func (s *TaskService) SetTaskStatus(ctx context.Context, id int64, status model.TaskStatus) (bool, error) {
	if !status.Valid() {
		return false, pkg.Errorf(pkg.CodeInvalidArgument, "task.set_status", "unknown status %q", status)
	}
	changed, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return false, err
	}
	if changed {
		if status == model.TaskDone {
			invalidateBoard(ctx, s.board)
		}
		slog.Info("task status changed", "task_id", id, "status", status)
	}
	return changed, nil
}

func (s *TaskService) StartTask(ctx context.Context, id int64) (bool, error) {
	return s.SetTaskStatus(ctx, id, model.TaskInProgress)
}

func (s *TaskService) CompleteTask(ctx context.Context, id int64) (bool, error) {
	return s.SetTaskStatus(ctx, id, model.TaskDone)
}

// SweepOverdue 以引擎时钟的"今天"为界
func (s *TaskService) SweepOverdue(ctx context.Context) ([]model.Task, error) {
	today := s.clock.Today()
	swept, err := s.repo.SweepOverdue(ctx, today)
	if err != nil {
		return nil, err
	}
	slog.Info("overdue sweep finished", "today", today, "swept", len(swept))
	return swept, nil
}

func (s *TaskService) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *TaskService) TasksForAssignee(ctx context.Context, userID int64, includeDone bool) ([]model.Task, error) {
	return s.repo.ListByAssignee(ctx, userID, includeDone)
}

// ParseDate 空串返回 nil，其它必须是 YYYY-MM-DD
func ParseDate(op, v string) (*string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	d, err := time.Parse(model.DateLayout, v)
	if err != nil {
		return nil, pkg.Errorf(pkg.CodeInvalidArgument, op, "invalid date %q, want YYYY-MM-DD", v)
	}
	norm := d.Format(model.DateLayout)
	return &norm, nil
}

func optionalID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
