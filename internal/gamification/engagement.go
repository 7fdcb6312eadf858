package gamification

import (
	"math"
	"time"

	"github.com/example/civicsbot/pkg/models"
)

// TotalCivicsQuestions is the size of the official question bank
const TotalCivicsQuestions = 128

// EngagementWindow is how far back sessions count as recent activity
const EngagementWindow = 7 * 24 * time.Hour

// EngagementScore blends streak, accuracy, recent activity and coverage into 0..100.
// Coverage is measured against totalItems, or the official bank when totalItems < 1.
func EngagementScore(progress models.LearnerProgress, sessions []models.SessionRecord, totalItems int, now time.Time) int {
	if totalItems < 1 {
		totalItems = TotalCivicsQuestions
	}

	recent := 0
	since := now.Add(-EngagementWindow)
	for _, s := range sessions {
		if !s.StartedAt.Before(since) && !s.StartedAt.After(now) {
			recent++
		}
	}

	streak := math.Min(30, float64(progress.StreakDays*2))
	accuracy := progress.OverallAccuracy / 100 * 25
	activity := math.Min(25, float64(recent*5))
	coverage := math.Min(20, float64(progress.TotalQuestionsAttempted)/float64(totalItems)*20)

	score := int(math.Round(streak + accuracy + activity + coverage))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
