package rdb

import (
	"context"
	"fmt"

	"TeamPulse/internal/model"
	"TeamPulse/internal/pkg"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TaskRepository struct {
	DB *gorm.DB
}

var sweepable = []model.TaskStatus{model.TaskToDo, model.TaskInProgress}

// Create 写任务、给创建者加积分；指派人已解析时写通知和 outbox
func (r *TaskRepository) Create(ctx context.Context, t *model.Task) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.Status == "" {
			t.Status = model.TaskToDo
		}
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		if t.CreatorID != nil {
			ledger := &LedgerRepository{DB: tx}
			if err := ledger.Apply(ctx, *t.CreatorID, model.EventTaskCreated, t.ID); err != nil {
				return err
			}
		}
		if t.AssigneeID == nil {
			return nil
		}
		if err := tx.Create(&model.Notification{
			UserID:  *t.AssigneeID,
			Message: fmt.Sprintf("New task #%d assigned to you: %s", t.ID, t.Title),
			Type:    model.NotifyTaskAssigned,
		}).Error; err != nil {
			return err
		}
		return insertOutbox(tx, model.EventTypeTaskAssigned, t.ID, map[string]any{
			"assignee_id": *t.AssigneeID,
			"title":       t.Title,
			"deadline":    t.Deadline,
		})
	})
	return Classify("task.create", err)
}

// SetStatus 在锁住的行上校验并流转状态。
// 同状态返回 false，Done 之后不能再流转；进入 Done 时给指派人发一次奖励。
func (r *TaskRepository) SetStatus(ctx context.Context, id int64, to model.TaskStatus) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t model.Task
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).Take(&t).Error; err != nil {
			return err
		}
		if t.Status == to {
			return nil
		}
		if t.Status == model.TaskDone {
			return pkg.Errorf(pkg.CodeInvalidTransition, "task.set_status", "task %d is done", id)
		}
		if !t.Status.CanMoveTo(to) {
			return pkg.Errorf(pkg.CodeInvalidTransition, "task.set_status", "%s -> %s", t.Status, to)
		}
		res := tx.Model(&model.Task{}).
			Where("id = ? AND status = ?", id, t.Status).
			UpdateColumn("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		if to != model.TaskDone {
			return nil
		}
		return r.payCompletion(ctx, tx, &t)
	})
	return changed, Classify("task.set_status", err)
}

// payCompletion 指派人未解析时按显示名再找一次，仍找不到则不发奖励
func (r *TaskRepository) payCompletion(ctx context.Context, tx *gorm.DB, t *model.Task) error {
	assignee := t.AssigneeID
	if assignee == nil && t.AssigneeName != "" {
		users := &UserRepository{DB: tx}
		u, err := users.FindByUsername(ctx, t.AssigneeName)
		switch {
		case err == nil:
			assignee = &u.ID
			if err := tx.Model(&model.Task{}).Where("id = ?", t.ID).
				UpdateColumn("assignee_id", u.ID).Error; err != nil {
				return err
			}
		case !pkg.IsNotFound(err):
			return err
		}
	}
	if assignee != nil {
		ledger := &LedgerRepository{DB: tx}
		if err := ledger.Apply(ctx, *assignee, model.EventTaskCompleted, t.ID); err != nil {
			return err
		}
	}
	return insertOutbox(tx, model.EventTypeTaskCompleted, t.ID, map[string]any{
		"assignee_id": assignee,
		"title":       t.Title,
	})
}

// SweepOverdue 把截止日期早于 today 的未完成任务置为 Overdue，只返回本次真正更新的行
func (r *TaskRepository) SweepOverdue(ctx context.Context, today string) ([]model.Task, error) {
	var swept []model.Task
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var candidates []model.Task
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status IN ? AND deadline IS NOT NULL AND deadline <> '' AND deadline < ?", sweepable, today).
			Order("id ASC").
			Find(&candidates).Error; err != nil {
			return err
		}
		for i := range candidates {
			t := candidates[i]
			// 再次校验状态和日期，避免覆盖并发写入
			res := tx.Model(&model.Task{}).
				Where("id = ? AND status IN ? AND deadline < ?", t.ID, sweepable, today).
				UpdateColumn("status", model.TaskOverdue)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			t.Status = model.TaskOverdue
			swept = append(swept, t)

			if t.AssigneeID != nil {
				if err := tx.Create(&model.Notification{
					UserID:  *t.AssigneeID,
					Message: fmt.Sprintf("Task #%d is overdue: %s (deadline %s)", t.ID, t.Title, deref(t.Deadline)),
					Type:    model.NotifyTaskOverdue,
				}).Error; err != nil {
					return err
				}
			}
			if err := insertOutbox(tx, model.EventTypeTaskOverdue, t.ID, map[string]any{
				"assignee_id":   t.AssigneeID,
				"assignee_name": t.AssigneeName,
				"title":         t.Title,
				"deadline":      t.Deadline,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, Classify("task.sweep", err)
	}
	return swept, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id int64) (*model.Task, error) {
	var t model.Task
	if err := r.DB.WithContext(ctx).Where("id = ?", id).Take(&t).Error; err != nil {
		return nil, Classify("task.find", err)
	}
	return &t, nil
}

// ListByAssignee 指派给某人的未完成任务
func (r *TaskRepository) ListByAssignee(ctx context.Context, userID int64, includeDone bool) ([]model.Task, error) {
	q := r.DB.WithContext(ctx).Where("assignee_id = ?", userID)
	if !includeDone {
		q = q.Where("status <> ?", model.TaskDone)
	}
	var list []model.Task
	err := q.Order("id DESC").Find(&list).Error
	return list, Classify("task.list_by_assignee", err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
