package database

import (
	"context"
	"testing"
	"time"

	"github.com/example/civicsbot/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Connect(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func registerLearner(t *testing.T, repos *Repositories, chatID int64) *models.Learner {
	t.Helper()
	learner, err := repos.Learners.Register(context.Background(), &models.Learner{
		ChatID:               chatID,
		Username:             "ada",
		FirstName:            "Ada",
		DailyGoal:            20,
		NotificationsEnabled: true,
		NotificationHour:     9,
	})
	require.NoError(t, err)
	return learner
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Migrate(context.Background(), db))
}

func TestLearnerRepository(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(newTestDB(t))

	learner := registerLearner(t, repos, 1001)
	assert.NotZero(t, learner.ID)
	assert.Equal(t, 20, learner.DailyGoal)
	assert.True(t, learner.NotificationsEnabled)

	// registering again keeps settings and refreshes names
	again, err := repos.Learners.Register(ctx, &models.Learner{ChatID: 1001, Username: "ada_l", DailyGoal: 5})
	require.NoError(t, err)
	assert.Equal(t, learner.ID, again.ID)
	assert.Equal(t, "ada_l", again.Username)
	assert.Equal(t, 20, again.DailyGoal)

	learner.DailyGoal = 30
	learner.NotificationsEnabled = false
	require.NoError(t, repos.Learners.UpdateSettings(ctx, learner))

	got, err := repos.Learners.GetByID(ctx, learner.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, got.DailyGoal)
	assert.False(t, got.NotificationsEnabled)

	registerLearner(t, repos, 1002)
	withReminders, err := repos.Learners.GetWithNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, withReminders, 1)
	assert.Equal(t, int64(1002), withReminders[0].ChatID)

	require.NoError(t, repos.Learners.MarkNotified(ctx, withReminders[0].ID, testNow))
	notified, err := repos.Learners.GetByChatID(ctx, 1002)
	require.NoError(t, err)
	require.NotNil(t, notified.LastNotifiedAt)
	assert.True(t, testNow.Equal(*notified.LastNotifiedAt))

	all, err := repos.Learners.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLearnerRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(newTestDB(t))

	_, err := repos.Learners.GetByID(ctx, 404)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = repos.Learners.GetByChatID(ctx, 404)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	err = repos.Learners.UpdateSettings(ctx, &models.Learner{ID: 404, DailyGoal: 3})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestQuestionRepository(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(newTestDB(t))

	for _, q := range []models.Question{
		{ID: "q2", Category: "government", Prompt: "What is the supreme law of the land?", Answer: "the Constitution"},
		{ID: "q1", Category: "rights", Prompt: "Name one right from the First Amendment.", Answer: "speech"},
		{ID: "q3", Category: "history", Prompt: "When was the Declaration of Independence adopted?", Answer: "July 4, 1776"},
	} {
		q := q
		require.NoError(t, repos.Questions.Upsert(ctx, &q))
	}
	require.NoError(t, repos.Questions.Upsert(ctx, &models.Question{ID: "q1", Category: "rights", Prompt: "Name one First Amendment right.", Answer: "religion"}))

	n, err := repos.Questions.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	q1, err := repos.Questions.GetByID(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "religion", q1.Answer)

	_, err = repos.Questions.GetByID(ctx, "q9")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	ordered, err := repos.Questions.GetByIDs(ctx, []string{"q3", "q9", "q1"})
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, "q3", ordered[0].ID)
	assert.Equal(t, "q1", ordered[1].ID)

	categories, err := repos.Questions.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"q1": "rights", "q2": "government", "q3": "history"}, categories)

	all, err := repos.Questions.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "q1", all[0].ID)
}

func TestProgressRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repos := NewRepositories(db)
	learner := registerLearner(t, repos, 2001)

	attempted := testNow.Add(-time.Hour)
	last := testNow
	before := models.NewLearnerProgress()
	after := before.Clone()
	after.TotalQuestionsAttempted = 4
	after.TotalCorrectAnswers = 3
	after.OverallAccuracy = 75
	after.StreakDays = 2
	after.LastStudyDate = &last
	after.TotalStudyMinutes = 25
	after.TotalPoints = 140
	after.ItemProgress["q1"] = models.ItemProgress{
		ItemID: "q1", TotalAttempts: 3, CorrectAttempts: 2, LastAttemptAt: &attempted,
		LastAnswerCorrect: true, NextReviewAt: testNow.Add(-time.Minute), EasinessFactor: 2.36, ConsecutiveCorrect: 1,
	}
	after.ItemProgress["q2"] = models.ItemProgress{
		ItemID: "q2", TotalAttempts: 1, CorrectAttempts: 1, LastAttemptAt: &attempted,
		LastAnswerCorrect: true, NextReviewAt: testNow.AddDate(0, 0, 1), EasinessFactor: 2.5, ConsecutiveCorrect: 1,
	}
	after.CategoryProgress["rights"] = models.CategoryStats{Attempted: 4, Correct: 3, Accuracy: 0.75}
	after.Badges["first_steps"] = models.Badge{ID: "first_steps", EarnedAt: testNow}
	for i := 0; i < 4; i++ {
		start := testNow.Add(-time.Duration(i) * time.Hour)
		after.RecentSessions = append(after.RecentSessions, models.SessionRecord{
			ID: string(rune('a' + i)), StartedAt: start, EndedAt: start.Add(10 * time.Minute),
			Type: models.SessionQuiz, QuestionsTotal: 4, QuestionsCorrect: 3, Accuracy: 75, DurationMinutes: 10,
		})
	}

	require.NoError(t, WithTx(ctx, db, func(tx *sqlx.Tx) error {
		return NewRepositories(tx).SaveProgress(ctx, learner.ID, before, after, 3)
	}))

	loaded, err := repos.LoadProgress(ctx, learner.ID, 10)
	require.NoError(t, err)

	assert.Equal(t, 4, loaded.TotalQuestionsAttempted)
	assert.Equal(t, 75.0, loaded.OverallAccuracy)
	assert.Equal(t, 140, loaded.TotalPoints)
	require.NotNil(t, loaded.LastStudyDate)
	assert.True(t, last.Equal(*loaded.LastStudyDate))

	require.Len(t, loaded.ItemProgress, 2)
	q1 := loaded.ItemProgress["q1"]
	assert.Equal(t, 2.36, q1.EasinessFactor)
	assert.True(t, q1.LastAnswerCorrect)
	assert.True(t, after.ItemProgress["q1"].NextReviewAt.Equal(q1.NextReviewAt))

	assert.Equal(t, after.CategoryProgress, loaded.CategoryProgress)
	assert.Contains(t, loaded.Badges, models.BadgeID("first_steps"))

	require.Len(t, loaded.RecentSessions, 3)
	assert.Equal(t, "a", loaded.RecentSessions[0].ID)
	assert.Equal(t, models.SessionQuiz, loaded.RecentSessions[0].Type)

	due, err := repos.Items.CountDue(ctx, learner.ID, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, due)
}

func TestStatsRepository_Missing(t *testing.T) {
	repos := NewRepositories(newTestDB(t))
	learner := registerLearner(t, repos, 3001)

	progress, err := repos.LoadProgress(context.Background(), learner.ID, 10)
	require.NoError(t, err)
	assert.Zero(t, progress.TotalPoints)
	assert.NotNil(t, progress.ItemProgress)
	assert.NotNil(t, progress.Badges)
}

func TestBadgeRepository_AwardOnce(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(newTestDB(t))
	learner := registerLearner(t, repos, 4001)

	require.NoError(t, repos.Badges.Award(ctx, learner.ID, models.Badge{ID: "streak_3", EarnedAt: testNow}))
	require.NoError(t, repos.Badges.Award(ctx, learner.ID, models.Badge{ID: "streak_3", EarnedAt: testNow.Add(time.Hour)}))

	badges, err := repos.Badges.GetByLearner(ctx, learner.ID)
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.True(t, testNow.Equal(badges[0].EarnedAt))
}

func TestWithTx_Rollback(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	boom := errors.New("boom")
	err := WithTx(ctx, db, func(tx *sqlx.Tx) error {
		q := &models.Question{ID: "q1", Category: "rights", Prompt: "p", Answer: "a"}
		if err := NewQuestionRepository(tx).Upsert(ctx, q); err != nil {
			return err
		}
		return boom
	})
	assert.True(t, errors.Is(err, boom))

	n, err := NewQuestionRepository(db).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
