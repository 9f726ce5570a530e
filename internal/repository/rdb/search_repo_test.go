package rdb_test

import (
	"context"
	"testing"
	"time"

	"TeamPulse/internal/model"
	"TeamPulse/internal/repository/rdb"
	"TeamPulse/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchAcrossEntities(t *testing.T) {
	db := testutil.SetupDB(t)
	ctx := context.Background()
	testutil.SeedUser(t, db, 1, "alice")
	ideas := &rdb.IdeaRepository{DB: db}
	tasks := &rdb.TaskRepository{DB: db}
	files := &rdb.FileRepository{DB: db}
	search := &rdb.SearchRepository{DB: db}

	base := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, ideas.Create(ctx, &model.Idea{Title: "Deploy pipeline", AuthorID: 1, CreatedAt: base}))
	require.NoError(t, tasks.Create(ctx, &model.Task{Title: "Fix deploy script", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, files.Save(ctx, &model.File{UploaderID: 1, StorageHandle: "h1", Title: "notes", Tags: "deploy,ops", UploadedAt: base.Add(2 * time.Minute)}))
	require.NoError(t, ideas.Create(ctx, &model.Idea{Title: "Unrelated", AuthorID: 1}))

	hits, err := search.Search(ctx, "DEPLOY", model.SearchAll, 20)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "file", hits[0].Kind)
	assert.Equal(t, "task", hits[1].Kind)
	assert.Equal(t, "idea", hits[2].Kind)

	hits, err = search.Search(ctx, "deploy", model.SearchTasks, 20)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "task", hits[0].Kind)

	hits, err = search.Search(ctx, "deploy", model.SearchAll, 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	byTag, err := files.ByTag(ctx, "ops", 10)
	require.NoError(t, err)
	assert.Len(t, byTag, 1)
}

func TestDashboard(t *testing.T) {
	db := testutil.SetupDB(t)
	ctx := context.Background()
	users := &rdb.UserRepository{DB: db}
	tasks := &rdb.TaskRepository{DB: db}
	search := &rdb.SearchRepository{DB: db}
	now := time.Now()

	_, err := users.EnsureUser(ctx, 1, "fresh", now)
	require.NoError(t, err)
	_, err = users.EnsureUser(ctx, 2, "idle", now.Add(-30*24*time.Hour))
	require.NoError(t, err)

	a := &model.Task{Title: "a"}
	b := &model.Task{Title: "b"}
	require.NoError(t, tasks.Create(ctx, a))
	require.NoError(t, tasks.Create(ctx, b))
	_, err = tasks.SetStatus(ctx, a.ID, model.TaskDone)
	require.NoError(t, err)

	d, err := search.Dashboard(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.TotalUsers)
	assert.Equal(t, int64(1), d.ActiveUsers)
	assert.Equal(t, int64(2), d.TotalTasks)
	assert.Equal(t, int64(1), d.CompletedTasks)
	assert.InDelta(t, 0.5, d.CompletionRate, 0.0001)
}

func TestNotifications(t *testing.T) {
	db := testutil.SetupDB(t)
	ctx := context.Background()
	testutil.SeedUser(t, db, 1, "alice")
	testutil.SeedUser(t, db, 2, "bob")
	repo := &rdb.NotificationRepository{DB: db}

	n := &model.Notification{UserID: 1, Message: "hi", Type: "info"}
	require.NoError(t, repo.Create(ctx, n))
	require.NoError(t, repo.CreateBatch(ctx, []model.Notification{{UserID: 1, Message: "again", Type: "info"}}))

	unread, err := repo.Unread(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	ok, err := repo.MarkRead(ctx, n.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = repo.MarkRead(ctx, n.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	unread, err = repo.Unread(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, unread, 1)
}
