package rdb_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"TeamPulse/internal/model"
	"TeamPulse/internal/pkg"
	"TeamPulse/internal/repository/rdb"
	"TeamPulse/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdeaCreateCreditsAuthorAndWritesOutbox(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := &rdb.IdeaRepository{DB: db}
	ctx := context.Background()
	testutil.SeedUser(t, db, 1, "alice")

	idea := &model.Idea{Title: "Dark mode", AuthorID: 1, Priority: model.PriorityHigh}
	require.NoError(t, repo.Create(ctx, idea))
	assert.NotZero(t, idea.ID)
	assert.Equal(t, int64(10), testutil.Karma(t, db, 1))
	assert.Equal(t, int64(1), testutil.Count(t, db, &model.OutboxEvent{}, "event_type = ?", model.EventTypeIdeaCreated))
}

func TestIdeaCreateUnknownAuthorRollsBack(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := &rdb.IdeaRepository{DB: db}

	err := repo.Create(context.Background(), &model.Idea{Title: "orphan", AuthorID: 9})
	require.Error(t, err)
	assert.True(t, pkg.IsConstraint(err))
	assert.Equal(t, int64(0), testutil.Count(t, db, &model.Idea{}, ""))
	assert.Equal(t, int64(0), testutil.Count(t, db, &model.OutboxEvent{}, ""))
}

func TestVoteOncePerUser(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := &rdb.IdeaRepository{DB: db}
	ctx := context.Background()
	testutil.SeedUser(t, db, 1, "alice")
	testutil.SeedUser(t, db, 2, "bob")
	idea := &model.Idea{Title: "Standup bot", AuthorID: 1}
	require.NoError(t, repo.Create(ctx, idea))

	ok, err := repo.Vote(ctx, 2, idea.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Vote(ctx, 2, idea.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, int64(1), testutil.Count(t, db, &model.IdeaVote{}, "idea_id = ?", idea.ID))

	view, err := repo.FindByID(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.Votes)
	assert.Equal(t, "alice", view.AuthorUsername)

	voted, err := repo.HasVoted(ctx, 2, idea.ID)
	require.NoError(t, err)
	assert.True(t, voted)
}

func TestVoteUnknownIdea(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := &rdb.IdeaRepository{DB: db}
	testutil.SeedUser(t, db, 1, "alice")

	ok, err := repo.Vote(context.Background(), 1, 12345, time.Now())
	assert.False(t, ok)
	assert.True(t, pkg.IsNotFound(err))
}

func TestConcurrentVotesCountOnce(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := &rdb.IdeaRepository{DB: db}
	ctx := context.Background()
	testutil.SeedUser(t, db, 1, "alice")
	testutil.SeedUser(t, db, 2, "bob")
	idea := &model.Idea{Title: "Race", AuthorID: 1}
	require.NoError(t, repo.Create(ctx, idea))

	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Vote(ctx, 2, idea.ID, time.Now())
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int64(1), testutil.Count(t, db, &model.IdeaVote{}, "idea_id = ?", idea.ID))
}

func TestListIdeasNewestFirstWithDerivedVotes(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := &rdb.IdeaRepository{DB: db}
	ctx := context.Background()
	testutil.SeedUser(t, db, 1, "alice")
	testutil.SeedUser(t, db, 2, "bob")

	older := &model.Idea{Title: "older", AuthorID: 1, CreatedAt: time.Now().Add(-time.Hour).UTC()}
	newer := &model.Idea{Title: "newer", AuthorID: 2}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))
	_, err := repo.Vote(ctx, 2, older.ID, time.Now())
	require.NoError(t, err)

	// 提示值被破坏也不影响列表票数
	require.NoError(t, db.Model(&model.Idea{}).Where("id = ?", older.ID).UpdateColumn("votes", 99).Error)

	list, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Title)
	assert.Equal(t, "bob", list[0].AuthorUsername)
	assert.Equal(t, int64(0), list[0].Votes)
	assert.Equal(t, int64(1), list[1].Votes)

	page, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "older", page[0].Title)
}

func TestCloseIdea(t *testing.T) {
	db := testutil.SetupDB(t)
	repo := &rdb.IdeaRepository{DB: db}
	ctx := context.Background()
	testutil.SeedUser(t, db, 1, "alice")
	idea := &model.Idea{Title: "x", AuthorID: 1}
	require.NoError(t, repo.Create(ctx, idea))

	changed, err := repo.Close(ctx, idea.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = repo.Close(ctx, idea.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = repo.Close(ctx, 999)
	assert.True(t, pkg.IsNotFound(err))
}

func TestVoteReconcilerRepo(t *testing.T) {
	db := testutil.SetupDB(t)
	ideas := &rdb.IdeaRepository{DB: db}
	repo := &rdb.VoteCountReconcilerRepo{DB: db}
	ctx := context.Background()
	testutil.SeedUser(t, db, 1, "alice")
	idea := &model.Idea{Title: "x", AuthorID: 1}
	require.NoError(t, ideas.Create(ctx, idea))
	_, err := ideas.Vote(ctx, 1, idea.ID, time.Now())
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.Idea{}).Where("id = ?", idea.ID).UpdateColumn("votes", 5).Error)

	list, last, err := repo.ReconcileList(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, idea.ID, last)
	assert.Equal(t, int64(5), list[0].Votes)

	actual, err := repo.RealVotes(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), actual)
	require.NoError(t, repo.FixVotes(ctx, idea.ID, actual))

	list, last, err = repo.ReconcileList(ctx, 10, last)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, idea.ID, last)
}
