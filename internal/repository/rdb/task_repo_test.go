package rdb_test

import (
	"context"
	"testing"

	"TeamPulse/internal/model"
	"TeamPulse/internal/pkg"
	"TeamPulse/internal/repository/rdb"
	"TeamPulse/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestTaskCreateCreditsCreatorAndNotifiesAssignee(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := &rdb.TaskRepository{DB: db}
	ctx := context.Background()
	testutil.SeedUser(t, db, 1, "lead")
	testutil.SeedUser(t, db, 2, "dev")

	task := &model.Task{Title: "Ship it", CreatorID: ptr(int64(1)), AssigneeID: ptr(int64(2)), AssigneeName: "dev"}
	require.NoError(t, repo.Create(ctx, task))

	assert.Equal(t, model.TaskToDo, task.Status)
	assert.Equal(t, int64(5), testutil.Karma(t, db, 1))
	assert.Equal(t, int64(0), testutil.Karma(t, db, 2))
	assert.Equal(t, int64(1), testutil.Count(t, db, &model.Notification{}, "user_id = ? AND type = ?", 2, model.NotifyTaskAssigned))
	assert.Equal(t, int64(1), testutil.Count(t, db, &model.OutboxEvent{}, "event_type = ?", model.EventTypeTaskAssigned))
}

func TestCompleteTwicePaysOnce(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := &rdb.TaskRepository{DB: db}
	ctx := context.Background()
	testutil.SeedUser(t, db, 2, "dev")
	task := &model.Task{Title: "t", AssigneeID: ptr(int64(2)), AssigneeName: "dev"}
	require.NoError(t, repo.Create(ctx, task))

	changed, err := repo.SetStatus(ctx, task.ID, model.TaskDone)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.SetStatus(ctx, task.ID, model.TaskDone)
	require.NoError(t, err)
	assert.False(t, changed)

	assert.Equal(t, int64(30), testutil.Karma(t, db, 2))
	assert.Equal(t, int64(1), testutil.Count(t, db, &model.KarmaEntry{}, "event = ?", model.EventTaskCompleted))
}

func TestDoneIsTerminal(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := &rdb.TaskRepository{DB: db}
	ctx := context.Background()
	task := &model.Task{Title: "t"}
	require.NoError(t, repo.Create(ctx, task))
	_, err := repo.SetStatus(ctx, task.ID, model.TaskDone)
	require.NoError(t, err)

	changed, err := repo.SetStatus(ctx, task.ID, model.TaskDone)
	require.NoError(t, err)
	assert.False(t, changed)

	for _, to := range []model.TaskStatus{model.TaskToDo, model.TaskInProgress, model.TaskOverdue} {
		changed, err := repo.SetStatus(ctx, task.ID, to)
		assert.Equal(t, pkg.CodeInvalidTransition, pkg.CodeOf(err), to)
		assert.False(t, changed, to)
	}
	got, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskDone, got.Status)
}

func TestInvalidTransitions(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := &rdb.TaskRepository{DB: db}
	ctx := context.Background()
	task := &model.Task{Title: "t"}
	require.NoError(t, repo.Create(ctx, task))

	changed, err := repo.SetStatus(ctx, task.ID, model.TaskToDo)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = repo.SetStatus(ctx, task.ID, model.TaskOverdue)
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = repo.SetStatus(ctx, task.ID, model.TaskInProgress)
	assert.True(t, pkg.IsInvalid(err))

	_, err = repo.SetStatus(ctx, 999, model.TaskDone)
	assert.True(t, pkg.IsNotFound(err))
}

func TestCompleteResolvesAssigneeLazily(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := &rdb.TaskRepository{DB: db}
	ctx := context.Background()

	task := &model.Task{Title: "t", AssigneeName: "latecomer"}
	require.NoError(t, repo.Create(ctx, task))
	testutil.SeedUser(t, db, 8, "LateComer")

	changed, err := repo.SetStatus(ctx, task.ID, model.TaskDone)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, int64(30), testutil.Karma(t, db, 8))

	got, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AssigneeID)
	assert.Equal(t, int64(8), *got.AssigneeID)
}

func TestCompleteUnresolvedAssigneeSkipsPayout(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := &rdb.TaskRepository{DB: db}
	ctx := context.Background()

	task := &model.Task{Title: "t", AssigneeName: "nobody"}
	require.NoError(t, repo.Create(ctx, task))

	changed, err := repo.SetStatus(ctx, task.ID, model.TaskDone)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, int64(0), testutil.Count(t, db, &model.KarmaEntry{}, ""))
	assert.Equal(t, int64(1), testutil.Count(t, db, &model.OutboxEvent{}, "event_type = ?", model.EventTypeTaskCompleted))
}

func TestSweepOverdue(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := &rdb.TaskRepository{DB: db}
	ctx := context.Background()
	testutil.SeedUser(t, db, 2, "dev")

	late := &model.Task{Title: "late", Deadline: ptr("2024-01-01"), AssigneeID: ptr(int64(2))}
	future := &model.Task{Title: "future", Deadline: ptr("2024-03-01")}
	noDeadline := &model.Task{Title: "whenever"}
	done := &model.Task{Title: "done", Deadline: ptr("2023-12-01")}
	for _, task := range []*model.Task{late, future, noDeadline, done} {
		require.NoError(t, repo.Create(ctx, task))
	}
	_, err := repo.SetStatus(ctx, done.ID, model.TaskDone)
	require.NoError(t, err)

	swept, err := repo.SweepOverdue(ctx, "2024-01-02")
	require.NoError(t, err)
	require.Len(t, swept, 1)
	assert.Equal(t, late.ID, swept[0].ID)
	assert.Equal(t, model.TaskOverdue, swept[0].Status)
	assert.Equal(t, int64(1), testutil.Count(t, db, &model.Notification{}, "type = ?", model.NotifyTaskOverdue))

	again, err := repo.SweepOverdue(ctx, "2024-01-02")
	require.NoError(t, err)
	assert.Empty(t, again)

	got, err := repo.FindByID(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskDone, got.Status)
}

func TestOverdueTaskCanStillComplete(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := &rdb.TaskRepository{DB: db}
	ctx := context.Background()
	testutil.SeedUser(t, db, 2, "dev")
	task := &model.Task{Title: "late", Deadline: ptr("2024-01-01"), AssigneeID: ptr(int64(2))}
	require.NoError(t, repo.Create(ctx, task))
	_, err := repo.SweepOverdue(ctx, "2024-02-01")
	require.NoError(t, err)

	changed, err := repo.SetStatus(ctx, task.ID, model.TaskDone)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, int64(30), testutil.Karma(t, db, 2))

	open, err := repo.ListByAssignee(ctx, 2, false)
	require.NoError(t, err)
	assert.Empty(t, open)
	all, err := repo.ListByAssignee(ctx, 2, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
