package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/example/civicsbot/internal/logger"
	"github.com/example/civicsbot/pkg/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	learners []models.Learner
	due      map[int64]int
	notified map[int64]time.Time
}

func (f *fakeStore) RemindableLearners(context.Context) ([]models.Learner, error) {
	return f.learners, nil
}

func (f *fakeStore) DueCount(_ context.Context, learnerID int64) (int, error) {
	return f.due[learnerID], nil
}

func (f *fakeStore) MarkNotified(_ context.Context, learnerID int64, at time.Time) error {
	f.notified[learnerID] = at
	return nil
}

type fakeNotifier struct {
	sent map[int64]int
	fail map[int64]bool
}

func (f *fakeNotifier) SendReminders(chatID int64, count int) error {
	if f.fail[chatID] {
		return errors.New("chat blocked")
	}
	f.sent[chatID] = count
	return nil
}

func newTestScheduler(store Store, notifier Notifier, now time.Time) *Scheduler {
	s := New(store, notifier, time.UTC, time.Hour, logger.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func TestCheckReminders(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 15, 0, 0, time.UTC)
	earlier := now.Add(-2 * time.Hour)
	yesterday := now.AddDate(0, 0, -1)

	store := &fakeStore{
		learners: []models.Learner{
			{ID: 1, ChatID: 101, DailyGoal: 20, NotificationHour: 9},
			{ID: 2, ChatID: 102, DailyGoal: 5, NotificationHour: 9, LastNotifiedAt: &yesterday},
			{ID: 3, ChatID: 103, DailyGoal: 20, NotificationHour: 8},
			{ID: 4, ChatID: 104, DailyGoal: 20, NotificationHour: 9, LastNotifiedAt: &earlier},
			{ID: 5, ChatID: 105, DailyGoal: 20, NotificationHour: 9},
			{ID: 6, ChatID: 106, DailyGoal: 20, NotificationHour: 9},
		},
		due:      map[int64]int{1: 3, 2: 12, 3: 4, 4: 4, 5: 0, 6: 2},
		notified: make(map[int64]time.Time),
	}
	notifier := &fakeNotifier{sent: make(map[int64]int), fail: map[int64]bool{106: true}}

	sent, err := newTestScheduler(store, notifier, now).CheckReminders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sent)
	assert.Equal(t, map[int64]int{101: 3, 102: 5}, notifier.sent)
	assert.Equal(t, now, store.notified[1])
	assert.Equal(t, now, store.notified[2])
	assert.NotContains(t, store.notified, int64(6))
}

func TestCheckReminders_Location(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC) // 09:00 in loc

	store := &fakeStore{
		learners: []models.Learner{{ID: 1, ChatID: 101, DailyGoal: 20, NotificationHour: 9}},
		due:      map[int64]int{1: 1},
		notified: make(map[int64]time.Time),
	}
	notifier := &fakeNotifier{sent: make(map[int64]int)}

	s := New(store, notifier, loc, 0, logger.NewNop())
	s.now = func() time.Time { return now }

	sent, err := s.CheckReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, DefaultInterval, s.interval)
}

func TestRunManualCheck(t *testing.T) {
	now := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)
	store := &fakeStore{due: map[int64]int{1: 7}, notified: make(map[int64]time.Time)}
	notifier := &fakeNotifier{sent: make(map[int64]int)}
	s := newTestScheduler(store, notifier, now)

	ok, err := s.RunManualCheck(context.Background(), models.Learner{ID: 1, ChatID: 101, DailyGoal: 5})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, notifier.sent[101])

	ok, err = s.RunManualCheck(context.Background(), models.Learner{ID: 2, ChatID: 102})
	require.NoError(t, err)
	assert.False(t, ok)
}
