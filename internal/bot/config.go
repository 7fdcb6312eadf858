package bot

import (
	"time"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Number of questions in a quiz
	QuizSize int
	// Number of cards in a flashcard round
	FlashcardCount int
	// Number of questions in a mock exam, as in the civics test
	MockExamSize int
	// Longest time a file download may take
	DownloadTimeout time.Duration
	// Largest question bank file accepted
	MaxImportBytes int64
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		QuizSize:        10,
		FlashcardCount:  10,
		MockExamSize:    10,
		DownloadTimeout: 30 * time.Second,
		MaxImportBytes:  5 << 20,
	}
}
