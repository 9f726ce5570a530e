package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"TeamPulse/internal/config"
	"TeamPulse/internal/model"
	"TeamPulse/internal/service"
	"TeamPulse/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSweeper struct {
	calls int
	err   error
}

func (s *stubSweeper) SweepOverdue(context.Context) ([]model.Task, error) {
	s.calls++
	return nil, s.err
}

type stubFinder struct {
	users []model.User
	since int
}

func (f *stubFinder) UsersMissing(_ context.Context, sinceDays int) ([]model.User, error) {
	f.since = sinceDays
	return f.users, nil
}

type stubNotifier struct {
	got [][]model.User
}

func (n *stubNotifier) RemindStandup(_ context.Context, users []model.User) error {
	n.got = append(n.got, users)
	return nil
}

func TestCronSpec(t *testing.T) {
	spec, err := CronSpec("10:05")
	require.NoError(t, err)
	assert.Equal(t, "5 10 * * *", spec)

	spec, err = CronSpec("09:00")
	require.NoError(t, err)
	assert.Equal(t, "0 9 * * *", spec)

	_, err = CronSpec("25:00")
	assert.Error(t, err)
	_, err = CronSpec("9am")
	assert.Error(t, err)
}

func TestScheduleUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Istanbul")
	require.NoError(t, err)
	cfg := config.Default().Schedule

	s, err := New(cfg, loc, &stubSweeper{}, &stubFinder{}, &stubNotifier{})
	require.NoError(t, err)
	entries := s.Entries()
	require.Len(t, entries, 2)

	// cron 以自身时区的当前时间推算下一次
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).In(loc)
	// 伊斯坦布尔 UTC+3：09:00 即 06:00 UTC，10:00 即 07:00 UTC
	assert.Equal(t, time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC), entries[0].Schedule.Next(from).UTC())
	assert.Equal(t, time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC), entries[1].Schedule.Next(from).UTC())
}

func TestNewRejectsBadClock(t *testing.T) {
	cfg := config.Default().Schedule
	cfg.StandupTime = "noon"
	_, err := New(cfg, nil, &stubSweeper{}, &stubFinder{}, &stubNotifier{})
	assert.Error(t, err)
}

func TestRunReminder(t *testing.T) {
	cfg := config.Default().Schedule
	cfg.MissingDays = 2
	finder := &stubFinder{}
	notifier := &stubNotifier{}
	s, err := New(cfg, nil, &stubSweeper{}, finder, notifier)
	require.NoError(t, err)

	require.NoError(t, s.RunReminder(context.Background()))
	assert.Equal(t, 2, finder.since)
	assert.Empty(t, notifier.got, "nobody to remind")

	finder.users = []model.User{{ID: 1}, {ID: 2}}
	require.NoError(t, s.RunReminder(context.Background()))
	require.Len(t, notifier.got, 1)
	assert.Len(t, notifier.got[0], 2)
}

func TestRunOverdueError(t *testing.T) {
	sw := &stubSweeper{err: errors.New("db down")}
	s, err := New(config.Default().Schedule, nil, sw, &stubFinder{}, &stubNotifier{})
	require.NoError(t, err)

	assert.Error(t, s.RunOverdue(context.Background()))
	s.job("overdue", s.RunOverdue)()
	assert.Equal(t, 2, sw.calls)
}

func TestJobsAgainstEngine(t *testing.T) {
	db := testutil.SetupDB(t)
	e := service.NewEngine(db, service.Options{Now: testutil.FixedClock("2024-01-02T08:00:00Z")})
	ctx := context.Background()
	_, err := e.Users.Register(ctx, 1, "a")
	require.NoError(t, err)
	_, err = e.Tasks.CreateTask(ctx, service.CreateTaskInput{Title: "late", Assignee: "a", Deadline: "2024-01-01"})
	require.NoError(t, err)

	s, err := New(config.Default().Schedule, nil, e.Tasks, e.Standups, e.Notifications)
	require.NoError(t, err)
	require.NoError(t, s.RunOverdue(ctx))
	require.NoError(t, s.RunReminder(ctx))

	unread, err := e.Notifications.Unread(ctx, 1)
	require.NoError(t, err)
	types := map[string]bool{}
	for _, n := range unread {
		types[n.Type] = true
	}
	assert.True(t, types[model.NotifyTaskOverdue])
	assert.True(t, types[model.NotifyStandup])
}
