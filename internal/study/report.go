package study

import (
	"context"
	"sort"

	"github.com/example/civicsbot/internal/gamification"
	"github.com/example/civicsbot/internal/progress"
	"github.com/example/civicsbot/internal/spaced_repetition"
	"github.com/example/civicsbot/pkg/models"
)

// Report is a learner's progress overview
type Report struct {
	LearnerID          int64                      `json:"learner_id"`
	TotalPoints        int                        `json:"total_points"`
	Level              int                        `json:"level"`
	LevelTitle         string                     `json:"level_title"`
	NextLevel          gamification.LevelProgress `json:"next_level"`
	StreakDays         int                        `json:"streak_days"`
	QuestionsAttempted int                        `json:"questions_attempted"`
	OverallAccuracy    float64                    `json:"overall_accuracy"`
	StudyMinutes       int                        `json:"study_minutes"`
	Engagement         int                        `json:"engagement"`
	PassProbability    int                        `json:"pass_probability"`
	BankSize           int                        `json:"bank_size"`
	Seen               int                        `json:"seen"`
	Mastered           int                        `json:"mastered"`
	Due                int                        `json:"due"`
	WeakCategories     []string                   `json:"weak_categories"`
	Sessions           progress.SessionStats      `json:"sessions"`
	Badges             []models.Badge             `json:"badges"`
}

// Report builds the progress overview of a learner
func (s *Service) Report(ctx context.Context, learnerID int64) (*Report, error) {
	lp, err := s.Progress(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	bankSize, err := s.repos.Questions.Count(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	current := lp.Clone()
	current.StreakDays = progress.CurrentStreak(lp.StreakDays, lp.LastStudyDate, now, s.cfg.Location)

	// readiness is measured against the official bank until the imported one is larger
	total := s.cfg.TotalItems
	if bankSize > total {
		total = bankSize
	}

	report := &Report{
		LearnerID:          learnerID,
		TotalPoints:        lp.TotalPoints,
		Level:              lp.Level,
		LevelTitle:         gamification.LevelTitle(lp.Level),
		NextLevel:          gamification.PointsToNextLevel(lp.TotalPoints),
		StreakDays:         current.StreakDays,
		QuestionsAttempted: lp.TotalQuestionsAttempted,
		OverallAccuracy:    lp.OverallAccuracy,
		StudyMinutes:       lp.TotalStudyMinutes,
		Engagement:         gamification.EngagementScore(current, lp.RecentSessions, total, now),
		PassProbability:    gamification.PassProbability(lp.ItemProgress, total),
		BankSize:           bankSize,
		Due:                len(spaced_repetition.DueItems(lp.ItemProgress, now)),
		WeakCategories:     spaced_repetition.WeakCategories(lp.CategoryProgress),
		Sessions:           progress.Summarize(lp.RecentSessions),
		Badges:             make([]models.Badge, 0, len(lp.Badges)),
	}

	for _, item := range lp.ItemProgress {
		if item.Attempted() {
			report.Seen++
		}
		if spaced_repetition.IsMastered(item) {
			report.Mastered++
		}
	}

	for _, b := range lp.Badges {
		report.Badges = append(report.Badges, b)
	}
	sort.Slice(report.Badges, func(i, j int) bool {
		if !report.Badges[i].EarnedAt.Equal(report.Badges[j].EarnedAt) {
			return report.Badges[i].EarnedAt.Before(report.Badges[j].EarnedAt)
		}
		return report.Badges[i].ID < report.Badges[j].ID
	})

	return report, nil
}
