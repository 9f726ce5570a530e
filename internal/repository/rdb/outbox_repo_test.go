package rdb_test

import (
	"context"
	"encoding/json"
	"testing"

	"TeamPulse/internal/model"
	"TeamPulse/internal/repository/rdb"
	"TeamPulse/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxLifecycle(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := &rdb.OutboxRepository{DB: db}
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx, model.EventTypeStandupReminder, 1, map[string]any{"user_id": 1}))
	require.NoError(t, repo.Enqueue(ctx, model.EventTypeStandupReminder, 2, map[string]any{"user_id": 2}))

	list, err := repo.List(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.NotEmpty(t, list[0].EventID)
	var body map[string]any
	require.NoError(t, json.Unmarshal(list[0].Payload, &body))
	assert.Contains(t, body, "event_time")

	require.NoError(t, repo.SuccessUpdate(ctx, list[0].ID))
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.RetryUpdate(ctx, list[1].ID))
	}

	// 重试耗尽的不再取出
	list, err = repo.List(ctx, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, list)

	sent, err := repo.CountByStatus(ctx, model.OutboxSent)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sent)
}
