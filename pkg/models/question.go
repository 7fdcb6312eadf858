package models

import "time"

// Question is one civics test question from the bank
type Question struct {
	ID          string    `json:"id" db:"id"`
	Category    string    `json:"category" db:"category"`
	Prompt      string    `json:"prompt" db:"prompt"`
	Answer      string    `json:"answer" db:"answer"`
	Explanation string    `json:"explanation" db:"explanation"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
