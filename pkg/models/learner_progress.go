package models

import "time"

// LearnerProgress is the aggregate state of a single learner
type LearnerProgress struct {
	TotalQuestionsAttempted int                      `json:"total_questions_attempted" db:"total_questions_attempted"`
	TotalCorrectAnswers     int                      `json:"total_correct_answers" db:"total_correct_answers"`
	OverallAccuracy         float64                  `json:"overall_accuracy" db:"overall_accuracy"` // percentage, 0..100
	StreakDays              int                      `json:"streak_days" db:"streak_days"`
	LastStudyDate           *time.Time               `json:"last_study_date,omitempty" db:"last_study_date"`
	TotalStudyMinutes       int                      `json:"total_study_minutes" db:"total_study_minutes"`
	TotalPoints             int                      `json:"total_points" db:"total_points"`
	Level                   int                      `json:"level" db:"-"`
	Badges                  map[BadgeID]Badge        `json:"badges" db:"-"`
	ItemProgress            map[string]ItemProgress  `json:"item_progress" db:"-"`
	CategoryProgress        map[string]CategoryStats `json:"category_progress" db:"-"`
	RecentSessions          []SessionRecord          `json:"recent_sessions" db:"-"`
}

// NewLearnerProgress returns an empty aggregate with initialized maps
func NewLearnerProgress() LearnerProgress {
	return LearnerProgress{
		Level:            1,
		Badges:           make(map[BadgeID]Badge),
		ItemProgress:     make(map[string]ItemProgress),
		CategoryProgress: make(map[string]CategoryStats),
	}
}

// Clone returns a deep copy so engine functions never mutate the caller's maps
func (p LearnerProgress) Clone() LearnerProgress {
	out := p
	out.Badges = make(map[BadgeID]Badge, len(p.Badges))
	for k, v := range p.Badges {
		out.Badges[k] = v
	}
	out.ItemProgress = make(map[string]ItemProgress, len(p.ItemProgress))
	for k, v := range p.ItemProgress {
		out.ItemProgress[k] = v
	}
	out.CategoryProgress = make(map[string]CategoryStats, len(p.CategoryProgress))
	for k, v := range p.CategoryProgress {
		out.CategoryProgress[k] = v
	}
	out.RecentSessions = append([]SessionRecord(nil), p.RecentSessions...)
	if p.LastStudyDate != nil {
		t := *p.LastStudyDate
		out.LastStudyDate = &t
	}
	return out
}

// EarnedBadgeIDs returns the set of badge ids already earned
func (p LearnerProgress) EarnedBadgeIDs() map[BadgeID]bool {
	ids := make(map[BadgeID]bool, len(p.Badges))
	for id := range p.Badges {
		ids[id] = true
	}
	return ids
}

// RecomputeAccuracy refreshes OverallAccuracy from the totals
func (p *LearnerProgress) RecomputeAccuracy() {
	if p.TotalQuestionsAttempted == 0 {
		p.OverallAccuracy = 0
		return
	}
	p.OverallAccuracy = float64(p.TotalCorrectAnswers) / float64(p.TotalQuestionsAttempted) * 100
}
