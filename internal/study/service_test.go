package study

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/civicsbot/internal/database"
	"github.com/example/civicsbot/internal/excel"
	"github.com/example/civicsbot/internal/gamification"
	"github.com/example/civicsbot/internal/logger"
	"github.com/example/civicsbot/internal/progress"
	"github.com/example/civicsbot/internal/spaced_repetition"
	"github.com/example/civicsbot/pkg/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	learner *models.Learner
	mu      sync.Mutex
	now     time.Time
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.Connect(ctx, database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	questions := database.NewQuestionRepository(db)
	for _, q := range []models.Question{
		{ID: "g1", Category: "government", Prompt: "What is the supreme law of the land?", Answer: "the Constitution"},
		{ID: "g2", Category: "government", Prompt: "What does the Constitution do?", Answer: "sets up the government"},
		{ID: "g3", Category: "government", Prompt: "How many amendments does the Constitution have?", Answer: "twenty-seven (27)"},
		{ID: "h1", Category: "history", Prompt: "When was the Declaration of Independence adopted?", Answer: "July 4, 1776"},
		{ID: "h2", Category: "history", Prompt: "Who was the first President?", Answer: "George Washington"},
		{ID: "h3", Category: "history", Prompt: "What territory did the United States buy from France in 1803?", Answer: "the Louisiana Territory"},
	} {
		q := q
		require.NoError(t, questions.Upsert(ctx, &q))
	}

	f := &fixture{now: testNow}
	f.svc = NewService(db, Config{DailyGoal: 10, Location: time.UTC}, logger.NewNop(), WithClock(f.clock))

	f.learner, err = f.svc.RegisterLearner(ctx, 42, "ada", "Ada")
	require.NoError(t, err)
	return f
}

func TestRegisterLearner_Defaults(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, int64(42), f.learner.ChatID)
	assert.Equal(t, 10, f.learner.DailyGoal)
	assert.True(t, f.learner.NotificationsEnabled)
	assert.Equal(t, DefaultNotificationHour, f.learner.NotificationHour)

	byChat, err := f.svc.LearnerByChat(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, f.learner.ID, byChat.ID)

	_, err = f.svc.LearnerByChat(context.Background(), 7)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestUpdateSettings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	learner := *f.learner
	learner.DailyGoal = 0
	assert.True(t, errors.Is(f.svc.UpdateSettings(ctx, &learner), models.ErrInvalidArgument))

	learner.DailyGoal = 15
	learner.NotificationHour = 24
	assert.True(t, errors.Is(f.svc.UpdateSettings(ctx, &learner), models.ErrInvalidArgument))

	learner.NotificationHour = 20
	learner.NotificationsEnabled = false
	require.NoError(t, f.svc.UpdateSettings(ctx, &learner))

	stored, err := f.svc.Learner(ctx, learner.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, stored.DailyGoal)
	assert.Equal(t, 20, stored.NotificationHour)
	assert.False(t, stored.NotificationsEnabled)
}

func TestAnswer_FirstCorrect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	out, err := f.svc.Answer(ctx, f.learner.ID, "g1", true, false)
	require.NoError(t, err)

	assert.True(t, out.Correct)
	assert.Equal(t, 1, out.Item.ConsecutiveCorrect)
	assert.Equal(t, testNow.AddDate(0, 0, 1), out.Item.NextReviewAt)

	// 10 correct + 15 first attempt + 10 first steps badge
	assert.Equal(t, 25, gamification.Total(out.Awards))
	require.Len(t, out.NewBadges, 1)
	assert.Equal(t, gamification.BadgeFirstSteps, out.NewBadges[0].ID)
	assert.Equal(t, 35, out.Points)
	assert.Equal(t, 35, out.TotalPoints)
	assert.Equal(t, 1, out.Level)
	assert.False(t, out.LevelUp)

	lp, err := f.svc.Progress(ctx, f.learner.ID)
	require.NoError(t, err)
	assert.Equal(t, 35, lp.TotalPoints)
	assert.Equal(t, 1, lp.TotalQuestionsAttempted)
	assert.Equal(t, 100.0, lp.OverallAccuracy)
	assert.Equal(t, models.CategoryStats{Attempted: 1, Correct: 1, Accuracy: 1}, lp.CategoryProgress["government"])
	require.Contains(t, lp.Badges, gamification.BadgeFirstSteps)
	assert.Equal(t, "First Steps", lp.Badges[gamification.BadgeFirstSteps].Name)
}

func TestAnswer_StreakMultiplier(t *testing.T) {
	tests := []struct {
		name      string
		lastStudy time.Time
		want      int
	}{
		{name: "streak held since yesterday", lastStudy: testNow.AddDate(0, 0, -1), want: 50},
		{name: "lapsed streak", lastStudy: testNow.AddDate(0, 0, -20), want: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)

			stats := models.NewLearnerProgress()
			stats.StreakDays = 30
			lastStudy := tt.lastStudy
			stats.LastStudyDate = &lastStudy
			require.NoError(t, database.NewStatsRepository(f.svc.db).Upsert(ctx, f.learner.ID, stats))

			out, err := f.svc.Answer(ctx, f.learner.ID, "g1", true, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, gamification.Total(out.Awards))
		})
	}
}

func TestAnswer_Incorrect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Answer(ctx, f.learner.ID, "h1", true, false)
	require.NoError(t, err)

	f.advance(24 * time.Hour)
	out, err := f.svc.Answer(ctx, f.learner.ID, "h1", false, false)
	require.NoError(t, err)

	assert.False(t, out.Correct)
	assert.Empty(t, out.Awards)
	assert.Zero(t, out.Points)
	assert.Equal(t, 0, out.Item.ConsecutiveCorrect)
	assert.InDelta(t, 2.3, out.Item.EasinessFactor, 1e-9)
}

func TestGrade_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Grade(ctx, f.learner.ID, "nope", spaced_repetition.QualityPerfect)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = f.svc.Grade(ctx, f.learner.ID, "g1", 6)
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))

	lp, err := f.svc.Progress(ctx, f.learner.ID)
	require.NoError(t, err)
	assert.Zero(t, lp.TotalQuestionsAttempted)
}

func TestAnswer_ConcurrentSameLearner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Answer(ctx, f.learner.ID, "g2", true, true)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	lp, err := f.svc.Progress(ctx, f.learner.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, lp.TotalQuestionsAttempted)
	assert.Equal(t, 8, lp.ItemProgress["g2"].TotalAttempts)
	assert.Equal(t, 8, lp.CategoryProgress["government"].Attempted)
}

func TestCompleteSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Answer(ctx, f.learner.ID, "g1", true, false)
	require.NoError(t, err)

	session := progress.NewSession("s1", models.SessionQuiz, testNow.Add(-10*time.Minute), testNow, 1, 1)
	out, err := f.svc.CompleteSession(ctx, f.learner.ID, session)
	require.NoError(t, err)

	// 30 session + 5 daily login + 50 perfect
	assert.Equal(t, 85, out.Points)
	assert.Equal(t, 120, out.TotalPoints)
	assert.Equal(t, 2, out.Level)
	assert.True(t, out.LevelUp)
	assert.Equal(t, 1, out.StreakDays)
	assert.Empty(t, out.NewBadges)

	// a second session the same day earns no daily login
	f.advance(time.Hour)
	second := progress.NewSession("s2", models.SessionFlashcards, f.clock().Add(-5*time.Minute), f.clock(), 2, 1)
	out, err = f.svc.CompleteSession(ctx, f.learner.ID, second)
	require.NoError(t, err)
	assert.Equal(t, 30, out.Points)
	assert.Equal(t, 1, out.StreakDays)

	// next day extends the streak
	f.advance(24 * time.Hour)
	third := progress.NewSession("s3", models.SessionFlashcards, f.clock().Add(-5*time.Minute), f.clock(), 0, 0)
	out, err = f.svc.CompleteSession(ctx, f.learner.ID, third)
	require.NoError(t, err)
	assert.Equal(t, 2, out.StreakDays)
	assert.Equal(t, 35, out.Points)

	lp, err := f.svc.Progress(ctx, f.learner.ID)
	require.NoError(t, err)
	require.Len(t, lp.RecentSessions, 3)
	assert.Equal(t, "s3", lp.RecentSessions[0].ID)
	assert.Equal(t, 20, lp.TotalStudyMinutes)
}

func TestCompleteSession_Invalid(t *testing.T) {
	f := newFixture(t)

	session := progress.NewSession("bad", models.SessionQuiz, testNow, testNow, 2, 3)
	_, err := f.svc.CompleteSession(context.Background(), f.learner.ID, session)
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
}

func TestPlan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	plan, err := f.svc.Plan(ctx, f.learner.ID)
	require.NoError(t, err)
	assert.Empty(t, plan.DueToday)
	assert.Equal(t, []string{"g1", "g2"}, plan.NewItems)
	assert.Equal(t, 2, plan.TotalRecommended)

	_, err = f.svc.Answer(ctx, f.learner.ID, "g1", false, false)
	require.NoError(t, err)
	f.advance(48 * time.Hour)

	plan, err = f.svc.Plan(ctx, f.learner.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, plan.DueToday)
	assert.Equal(t, []string{"g2", "g3"}, plan.NewItems)

	due, err := f.svc.DueCount(ctx, f.learner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, due)

	questions, err := f.svc.PlannedQuestions(ctx, f.learner.ID, 2)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "g1", questions[0].ID)
	assert.Equal(t, "g2", questions[1].ID)
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Answer(ctx, f.learner.ID, "g1", true, false)
	require.NoError(t, err)
	session := progress.NewSession("s1", models.SessionQuiz, testNow.Add(-10*time.Minute), testNow, 1, 1)
	_, err = f.svc.CompleteSession(ctx, f.learner.ID, session)
	require.NoError(t, err)

	report, err := f.svc.Report(ctx, f.learner.ID)
	require.NoError(t, err)

	assert.Equal(t, 120, report.TotalPoints)
	assert.Equal(t, 2, report.Level)
	assert.Equal(t, gamification.LevelTitle(2), report.LevelTitle)
	assert.Equal(t, 20, report.NextLevel.Current)
	assert.Equal(t, 200, report.NextLevel.Needed)
	assert.Equal(t, 1, report.StreakDays)
	assert.Equal(t, 6, report.BankSize)
	assert.Equal(t, 1, report.Seen)
	assert.Zero(t, report.Mastered)
	assert.Zero(t, report.Due)
	assert.Positive(t, report.PassProbability)
	assert.Equal(t, 1, report.Sessions.Count)
	require.Len(t, report.Badges, 1)
	assert.Equal(t, gamification.BadgeFirstSteps, report.Badges[0].ID)

	// a lapsed streak reads as zero
	f.advance(72 * time.Hour)
	report, err = f.svc.Report(ctx, f.learner.ID)
	require.NoError(t, err)
	assert.Zero(t, report.StreakDays)
	assert.Equal(t, 1, report.Due)
}

func TestImportQuestions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	csv := "id,category,prompt,answer,explanation\n" +
		"g1,government,What is the supreme law of the land?,the U.S. Constitution,\n" +
		"r1,rights,What is one right in the First Amendment?,speech,\n" +
		"r2,rights,,missing prompt,\n"

	result, err := f.svc.ImportQuestions(ctx, strings.NewReader(csv), excel.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Skipped)

	bank, err := f.svc.Bank(ctx)
	require.NoError(t, err)
	assert.Len(t, bank, 7)
}
