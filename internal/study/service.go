// Package study connects learners, the question bank and storage to the scheduling engine.
package study

import (
	"context"
	"io"
	"time"

	"github.com/example/civicsbot/internal/database"
	"github.com/example/civicsbot/internal/excel"
	"github.com/example/civicsbot/internal/gamification"
	"github.com/example/civicsbot/internal/logger"
	"github.com/example/civicsbot/internal/progress"
	"github.com/example/civicsbot/internal/spaced_repetition"
	"github.com/example/civicsbot/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Learner defaults
const (
	DefaultNotificationHour = 9
	MaxDailyGoal            = 200
)

// Config holds the study settings of the service
type Config struct {
	DailyGoal    int
	TotalItems   int
	HistoryLimit int
	Location     *time.Location
}

// Service runs study operations for learners
type Service struct {
	db    *sqlx.DB
	repos *database.Repositories
	cfg   Config
	log   *logger.Logger
	now   func() time.Time
	locks *learnerLocks
}

// Option customizes a Service
type Option func(*Service)

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a study service over db
func NewService(db *sqlx.DB, cfg Config, log *logger.Logger, opts ...Option) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.HistoryLimit < 1 {
		cfg.HistoryLimit = models.DefaultHistoryLimit
	}
	if cfg.TotalItems < 1 {
		cfg.TotalItems = gamification.TotalCivicsQuestions
	}
	if cfg.DailyGoal < 1 {
		cfg.DailyGoal = 20
	}

	s := &Service{
		db:    db,
		repos: database.NewRepositories(db),
		cfg:   cfg,
		log:   log,
		now:   time.Now,
		locks: newLearnerLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location is the zone used for calendar days
func (s *Service) Location() *time.Location {
	return s.cfg.Location
}

func (s *Service) clock() time.Time {
	return s.now().In(s.cfg.Location)
}

// RegisterLearner creates the learner for a chat, or refreshes its names
func (s *Service) RegisterLearner(ctx context.Context, chatID int64, username, firstName string) (*models.Learner, error) {
	learner, err := s.repos.Learners.Register(ctx, &models.Learner{
		ChatID:               chatID,
		Username:             username,
		FirstName:            firstName,
		DailyGoal:            s.cfg.DailyGoal,
		NotificationsEnabled: true,
		NotificationHour:     DefaultNotificationHour,
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("learner registered", "learner_id", learner.ID, "chat_id", chatID)
	return learner, nil
}

// LearnerByChat returns the learner of a chat
func (s *Service) LearnerByChat(ctx context.Context, chatID int64) (*models.Learner, error) {
	return s.repos.Learners.GetByChatID(ctx, chatID)
}

// Learner returns a learner by ID
func (s *Service) Learner(ctx context.Context, learnerID int64) (*models.Learner, error) {
	return s.repos.Learners.GetByID(ctx, learnerID)
}

// UpdateSettings validates and stores goal and reminder preferences
func (s *Service) UpdateSettings(ctx context.Context, learner *models.Learner) error {
	if learner.DailyGoal < 1 || learner.DailyGoal > MaxDailyGoal {
		return errors.Wrapf(models.ErrInvalidArgument, "daily goal %d outside 1-%d", learner.DailyGoal, MaxDailyGoal)
	}
	if learner.NotificationHour < 0 || learner.NotificationHour > 23 {
		return errors.Wrapf(models.ErrInvalidArgument, "notification hour %d outside 0-23", learner.NotificationHour)
	}
	return s.repos.Learners.UpdateSettings(ctx, learner)
}

// Progress loads a learner's aggregate with badge details and level filled in
func (s *Service) Progress(ctx context.Context, learnerID int64) (models.LearnerProgress, error) {
	return s.loadProgress(ctx, s.repos, learnerID)
}

func (s *Service) loadProgress(ctx context.Context, repos *database.Repositories, learnerID int64) (models.LearnerProgress, error) {
	lp, err := repos.LoadProgress(ctx, learnerID, s.cfg.HistoryLimit)
	if err != nil {
		return lp, err
	}
	for id, stored := range lp.Badges {
		if def, ok := gamification.LookupBadge(id); ok {
			lp.Badges[id] = def.Badge(stored.EarnedAt)
		}
	}
	lp.Level = gamification.Level(lp.TotalPoints)
	return lp, nil
}

func (s *Service) save(ctx context.Context, learnerID int64, before, after models.LearnerProgress) error {
	return database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return database.NewRepositories(tx).SaveProgress(ctx, learnerID, before, after, s.cfg.HistoryLimit)
	})
}

// Plan builds today's study plan over the whole question bank
func (s *Service) Plan(ctx context.Context, learnerID int64) (spaced_repetition.StudyPlan, error) {
	learner, err := s.repos.Learners.GetByID(ctx, learnerID)
	if err != nil {
		return spaced_repetition.StudyPlan{}, err
	}
	lp, err := s.Progress(ctx, learnerID)
	if err != nil {
		return spaced_repetition.StudyPlan{}, err
	}
	categories, err := s.repos.Questions.Categories(ctx)
	if err != nil {
		return spaced_repetition.StudyPlan{}, err
	}

	now := s.clock()
	ids := make([]string, 0, len(categories))
	for id := range categories {
		ids = append(ids, id)
	}

	// progress for questions removed from the bank is not planned
	items := make(map[string]models.ItemProgress, len(categories))
	for id, p := range spaced_repetition.WithUnseen(lp.ItemProgress, ids, now) {
		if _, ok := categories[id]; ok {
			items[id] = p
		}
	}

	plan, err := spaced_repetition.Plan(spaced_repetition.PlanInput{
		Progress:       items,
		Categories:     lp.CategoryProgress,
		DailyGoal:      learner.DailyGoal,
		Now:            now,
		ItemCategories: categories,
	})
	if err != nil {
		return plan, err
	}

	s.log.Debug("plan built",
		"learner_id", learnerID,
		"due", len(plan.DueToday),
		"new", len(plan.NewItems),
		"weak", len(plan.WeakAreaReview),
	)
	return plan, nil
}

// PlannedQuestions returns up to limit questions of today's plan in plan order
func (s *Service) PlannedQuestions(ctx context.Context, learnerID int64, limit int) ([]models.Question, error) {
	plan, err := s.Plan(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	ids := plan.Items()
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return s.repos.Questions.GetByIDs(ctx, ids)
}

// Bank returns the whole question bank
func (s *Service) Bank(ctx context.Context) ([]models.Question, error) {
	return s.repos.Questions.GetAll(ctx)
}

// DueCount counts the learner's questions due for review now
func (s *Service) DueCount(ctx context.Context, learnerID int64) (int, error) {
	return s.repos.Items.CountDue(ctx, learnerID, s.clock())
}

// ImportQuestions loads a question bank file in one transaction
func (s *Service) ImportQuestions(ctx context.Context, r io.Reader, format string) (*excel.ImportResult, error) {
	var result *excel.ImportResult
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		result, err = excel.Import(ctx, database.NewQuestionRepository(tx), r, format, excel.DefaultImportConfig())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("questions imported",
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
	)
	return result, nil
}

// Outcome is what an answer or a session earned
type Outcome struct {
	Awards      []gamification.Award
	NewBadges   []models.Badge
	Points      int
	TotalPoints int
	Level       int
	LevelUp     bool
	StreakDays  int
}

// AnswerOutcome is the result of one graded answer
type AnswerOutcome struct {
	Outcome
	Item                models.ItemProgress
	Correct             bool
	CompletedCategories []string
}

// Answer grades a multiple-choice answer; hesitant marks a slow correct answer
func (s *Service) Answer(ctx context.Context, learnerID int64, itemID string, correct, hesitant bool) (*AnswerOutcome, error) {
	return s.Grade(ctx, learnerID, itemID, spaced_repetition.RatingFromAnswer(correct, hesitant))
}

// Grade records a 0-5 rating for one question
func (s *Service) Grade(ctx context.Context, learnerID int64, itemID string, rating spaced_repetition.QualityResponse) (*AnswerOutcome, error) {
	question, err := s.repos.Questions.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(learnerID)
	defer unlock()

	before, err := s.Progress(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	after, result, err := progress.RecordAnswer(before, itemID, question.Category, rating, now)
	if err != nil {
		return nil, err
	}

	// answers score at the streak still held now; the stored one only moves when a session completes
	scoring := after
	scoring.StreakDays = progress.CurrentStreak(after.StreakDays, after.LastStudyDate, now, s.cfg.Location)

	awards := gamification.ScoreAnswer(scoring, result.Correct, result.FirstAttempt)
	for range result.CompletedCategories {
		points, _ := gamification.AwardPoints(gamification.ActionCategoryComplete, scoring, 1)
		awards = append(awards, gamification.Award{Action: gamification.ActionCategoryComplete, Points: points})
	}

	outcome := s.settle(before, &after, awards, now)
	if err := s.save(ctx, learnerID, before, after); err != nil {
		return nil, err
	}

	s.log.Debug("answer recorded",
		"learner_id", learnerID,
		"item_id", itemID,
		"rating", int(rating),
		"correct", result.Correct,
		"next_review_at", result.Item.NextReviewAt,
		"points", outcome.Points,
	)
	return &AnswerOutcome{
		Outcome:             outcome,
		Item:                result.Item,
		Correct:             result.Correct,
		CompletedCategories: result.CompletedCategories,
	}, nil
}

// SessionOutcome is the result of a completed session
type SessionOutcome struct {
	Outcome
	Session models.SessionRecord
}

// CompleteSession folds a finished session into the learner's progress
func (s *Service) CompleteSession(ctx context.Context, learnerID int64, session models.SessionRecord) (*SessionOutcome, error) {
	unlock := s.locks.lock(learnerID)
	defer unlock()

	before, err := s.Progress(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	firstOfDay := progress.IsFirstSessionOfDay(before, session.StartedAt, s.cfg.Location)
	after, err := progress.ApplySession(before, session, s.cfg.HistoryLimit, s.cfg.Location)
	if err != nil {
		return nil, err
	}

	awards := gamification.ScoreSession(after, session, firstOfDay)
	outcome := s.settle(before, &after, awards, s.clock())
	if err := s.save(ctx, learnerID, before, after); err != nil {
		return nil, err
	}

	s.log.Info("session completed",
		"learner_id", learnerID,
		"session_id", session.ID,
		"type", session.Type,
		"accuracy", session.Accuracy,
		"streak_days", after.StreakDays,
		"points", outcome.Points,
		"new_badges", len(outcome.NewBadges),
	)
	return &SessionOutcome{Outcome: outcome, Session: session}, nil
}

// settle adds awards and newly earned badges to after and reports the change
func (s *Service) settle(before models.LearnerProgress, after *models.LearnerProgress, awards []gamification.Award, now time.Time) Outcome {
	after.TotalPoints += gamification.Total(awards)

	badges := gamification.CheckNewlyEarned(*after, after.RecentSessions, after.EarnedBadgeIDs(), now)
	for _, b := range badges {
		after.Badges[b.ID] = b
		after.TotalPoints += b.Points
	}

	after.Level = gamification.Level(after.TotalPoints)
	return Outcome{
		Awards:      awards,
		NewBadges:   badges,
		Points:      after.TotalPoints - before.TotalPoints,
		TotalPoints: after.TotalPoints,
		Level:       after.Level,
		LevelUp:     after.Level > before.Level,
		StreakDays:  after.StreakDays,
	}
}

// RemindableLearners returns learners with reminders switched on
func (s *Service) RemindableLearners(ctx context.Context) ([]models.Learner, error) {
	return s.repos.Learners.GetWithNotifications(ctx)
}

// MarkNotified records when a learner was last reminded
func (s *Service) MarkNotified(ctx context.Context, learnerID int64, at time.Time) error {
	return s.repos.Learners.MarkNotified(ctx, learnerID, at)
}
