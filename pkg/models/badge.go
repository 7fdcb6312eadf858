package models

import "time"

// BadgeType groups badges for display
type BadgeType string

const (
	BadgeStreak    BadgeType = "streak"
	BadgeMastery   BadgeType = "mastery"
	BadgeMilestone BadgeType = "milestone"
	BadgeSpecial   BadgeType = "special"
)

// BadgeID is the stable identifier of a catalog badge
type BadgeID string

// Badge is an achievement earned by a learner. Once earned it is never revoked.
type Badge struct {
	ID          BadgeID   `json:"id" db:"badge_id"`
	Name        string    `json:"name" db:"-"`
	Description string    `json:"description" db:"-"`
	Icon        string    `json:"icon" db:"-"`
	Type        BadgeType `json:"type" db:"-"`
	Points      int       `json:"points" db:"-"`
	EarnedAt    time.Time `json:"earned_at" db:"earned_at"`
}
