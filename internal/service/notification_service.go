package service

import (
	"context"
	"log/slog"
	"strings"

	"TeamPulse/internal/model"
	"TeamPulse/internal/pkg"
	"TeamPulse/internal/repository/rdb"

	"gorm.io/gorm"
)

const standupReminderText = "Daily standup time: what did you do yesterday, what's the plan for today, any blockers?"

type NotificationService struct {
	repo *rdb.NotificationRepository
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{repo: &rdb.NotificationRepository{DB: db}}
}

func (s *NotificationService) Notify(ctx context.Context, userID int64, message, typ string) (int64, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return 0, pkg.Errorf(pkg.CodeInvalidArgument, "notification.create", "empty message")
	}
	if typ == "" {
		typ = "info"
	}
	n := &model.Notification{UserID: userID, Message: message, Type: typ}
	if err := s.repo.Create(ctx, n); err != nil {
		return 0, err
	}
	return n.ID, nil
}

func (s *NotificationService) Unread(ctx context.Context, userID int64) ([]model.Notification, error) {
	return s.repo.Unread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID int64) (bool, error) {
	return s.repo.MarkRead(ctx, id, userID)
}

// RemindStandup 给未交站会的人写提醒通知，并交给 outbox 投递
func (s *NotificationService) RemindStandup(ctx context.Context, users []model.User) error {
	list := make([]model.Notification, 0, len(users))
	for _, u := range users {
		list = append(list, model.Notification{
			UserID:  u.ID,
			Message: standupReminderText,
			Type:    model.NotifyStandup,
		})
	}
	if err := s.repo.CreateWithEvents(ctx, list, model.EventTypeStandupReminder); err != nil {
		return err
	}
	slog.Info("standup reminders queued", "count", len(list))
	return nil
}
