package gamification

import (
	"testing"
	"time"

	"github.com/example/civicsbot/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestEngagementScore(t *testing.T) {
	recent := []models.SessionRecord{
		{StartedAt: testNow.Add(-time.Hour)},
		{StartedAt: testNow.Add(-48 * time.Hour)},
		{StartedAt: testNow.Add(-6 * 24 * time.Hour)},
		{StartedAt: testNow.Add(-8 * 24 * time.Hour)},
		{StartedAt: testNow.Add(time.Hour)},
	}

	tests := []struct {
		name     string
		progress func() models.LearnerProgress
		sessions []models.SessionRecord
		want     int
	}{
		{
			name:     "fresh learner",
			progress: models.NewLearnerProgress,
			want:     0,
		},
		{
			name: "mixed activity",
			progress: func() models.LearnerProgress {
				p := models.NewLearnerProgress()
				p.StreakDays = 5
				p.OverallAccuracy = 80
				p.TotalQuestionsAttempted = 64
				return p
			},
			sessions: recent,
			want:     55,
		},
		{
			name: "everything maxed",
			progress: func() models.LearnerProgress {
				p := models.NewLearnerProgress()
				p.StreakDays = 60
				p.OverallAccuracy = 100
				p.TotalQuestionsAttempted = 1000
				return p
			},
			sessions: append(append([]models.SessionRecord{}, recent...), recent...),
			want:     100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EngagementScore(tt.progress(), tt.sessions, TotalCivicsQuestions, testNow)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func TestEngagementScore_Coverage(t *testing.T) {
	p := models.NewLearnerProgress()
	p.TotalQuestionsAttempted = 64

	// 64 of 128 is half coverage, 64 of 256 a quarter
	assert.Equal(t, 10, EngagementScore(p, nil, TotalCivicsQuestions, testNow))
	assert.Equal(t, 5, EngagementScore(p, nil, 256, testNow))
	assert.Equal(t, 10, EngagementScore(p, nil, 0, testNow))
}
