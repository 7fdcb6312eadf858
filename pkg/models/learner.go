package models

import "time"

// Learner is a registered user of the study bot
type Learner struct {
	ID                   int64      `json:"id" db:"id"`
	ChatID               int64      `json:"chat_id" db:"chat_id"` // Telegram chat ID
	Username             string     `json:"username" db:"username"`
	FirstName            string     `json:"first_name" db:"first_name"`
	DailyGoal            int        `json:"daily_goal" db:"daily_goal"`
	NotificationsEnabled bool       `json:"notifications_enabled" db:"notifications_enabled"`
	NotificationHour     int        `json:"notification_hour" db:"notification_hour"` // Hour of day (0-23)
	LastNotifiedAt       *time.Time `json:"last_notified_at,omitempty" db:"last_notified_at"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
}
