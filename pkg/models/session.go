package models

import "time"

// SessionType tags what kind of study a session was
type SessionType string

const (
	SessionFlashcards SessionType = "flashcards"
	SessionQuiz       SessionType = "quiz"
	SessionMockExam   SessionType = "mock_exam"
	SessionReading    SessionType = "reading"
	SessionWriting    SessionType = "writing"
	SessionInterview  SessionType = "interview"
	SessionSpeech     SessionType = "speech"
	SessionChallenge  SessionType = "challenge"
)

// SessionTypes lists every known session type in display order
var SessionTypes = []SessionType{
	SessionFlashcards,
	SessionQuiz,
	SessionMockExam,
	SessionReading,
	SessionWriting,
	SessionInterview,
	SessionSpeech,
	SessionChallenge,
}

// Valid reports whether t is a known session type
func (t SessionType) Valid() bool {
	for _, known := range SessionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// SessionRecord is an immutable summary of one completed study session
type SessionRecord struct {
	ID               string      `json:"id" db:"id"`
	StartedAt        time.Time   `json:"started_at" db:"started_at"`
	EndedAt          time.Time   `json:"ended_at" db:"ended_at"`
	Type             SessionType `json:"session_type" db:"session_type"`
	QuestionsTotal   int         `json:"questions_total" db:"questions_total"`
	QuestionsCorrect int         `json:"questions_correct" db:"questions_correct"`
	Accuracy         float64     `json:"accuracy" db:"accuracy"` // percentage, 0..100
	DurationMinutes  int         `json:"duration_minutes" db:"duration_minutes"`
}

// DefaultHistoryLimit is how many sessions a learner keeps in history
const DefaultHistoryLimit = 100
