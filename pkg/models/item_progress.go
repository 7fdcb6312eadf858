package models

import "time"

// Easiness factor bounds for the SM-2 scheduler
const (
	DefaultEasinessFactor = 2.5
	MinEasinessFactor     = 1.3
	MaxEasinessFactor     = 2.5
)

// ItemProgress tracks a learner's review state for a single question
type ItemProgress struct {
	ItemID             string     `json:"item_id" db:"item_id"`
	TotalAttempts      int        `json:"total_attempts" db:"total_attempts"`
	CorrectAttempts    int        `json:"correct_attempts" db:"correct_attempts"`
	LastAttemptAt      *time.Time `json:"last_attempt_at,omitempty" db:"last_attempt_at"`
	LastAnswerCorrect  bool       `json:"last_answer_correct" db:"last_answer_correct"`
	NextReviewAt       time.Time  `json:"next_review_at" db:"next_review_at"`
	EasinessFactor     float64    `json:"easiness_factor" db:"easiness_factor"`
	ConsecutiveCorrect int        `json:"consecutive_correct" db:"consecutive_correct"`
}

// NewItemProgress returns the default state of an item that has never been rated
func NewItemProgress(itemID string, now time.Time) ItemProgress {
	return ItemProgress{
		ItemID:         itemID,
		NextReviewAt:   now,
		EasinessFactor: DefaultEasinessFactor,
	}
}

// Attempted reports whether the item has been rated at least once
func (p ItemProgress) Attempted() bool {
	return p.TotalAttempts > 0
}

// IsDue reports whether the item should be reviewed at now
func (p ItemProgress) IsDue(now time.Time) bool {
	return !now.Before(p.NextReviewAt)
}
